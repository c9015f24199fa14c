package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// lock held while the first request with a key is being handled
	provisionalLockTTL = 60 * time.Second
	// allowed skew between X-Request-At and the server clock
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// idempHeaders are the validated caller headers of a mutating request.
type idempHeaders struct {
	RequestID string
	ActorID   string
	At        time.Time
}

// readHeaders validates the three idempotency headers against now.
func readHeaders(h http.Header, now time.Time) (idempHeaders, error) {
	var out idempHeaders

	out.RequestID = strings.TrimSpace(h.Get(HeaderRequestID))
	switch {
	case out.RequestID == "":
		return out, errors.New("missing " + HeaderRequestID)
	case !validReqID(out.RequestID):
		return out, errors.New("invalid " + HeaderRequestID + " format")
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return out, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return out, errors.New(HeaderRequestAt + " too skewed")
	}
	out.At = at

	out.ActorID = strings.TrimSpace(h.Get(HeaderActorID))
	switch {
	case out.ActorID == "":
		return out, errors.New("missing " + HeaderActorID)
	case !validActor(out.ActorID):
		return out, errors.New("invalid " + HeaderActorID)
	}
	return out, nil
}

func (h idempHeaders) entry(bodySHA string) idempEntry {
	return idempEntry{
		InProgress:  true,
		BodySHA256:  bodySHA,
		RequestID:   h.RequestID,
		RequestAtMS: h.At.UnixMilli(),
		CreatedAt:   nowUTC(),
	}
}

// respRecorder tees the handler's response so it can be stored.
type respRecorder struct {
	w    http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.w.WriteHeader(code)
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware guards POST/PUT/PATCH/DELETE routes. The key is
// method + route + actor id + request id. Responses below 500 are replayed
// for ttl to a retry carrying the same body; a 5xx drops the key so the
// request can be retried.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			hdr, err := readHeaders(req.Header, nowUTC())
			if err != nil {
				return errJSON(c, http.StatusBadRequest, err.Error())
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			sum := bodyHash(body)

			key := buildKey(req.Method, c.Path(), hdr.ActorID, hdr.RequestID)
			klog := log.WithFields(logrus.Fields{"key": key, "actor_id": hdr.ActorID})

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			first, err := provisionalSet(ctx, rdb, key, hdr.entry(sum))
			if err != nil {
				klog.WithError(err).Error("idempotency store unavailable")
				return errJSON(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !first {
				return replay(ctx, c, rdb, key, sum, klog)
			}

			rec := &respRecorder{w: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be done once the handler returns
			bg := context.Background()
			if rec.code >= http.StatusInternalServerError {
				if err := release(bg, rdb, key); err != nil {
					klog.WithError(err).Warn("idempotency key not released")
				}
				return nil
			}
			final := hdr.entry(sum)
			final.InProgress = false
			final.Code = rec.code
			final.Body = rec.buf.Bytes()
			if err := saveFinal(bg, rdb, key, final, ttl); err != nil {
				klog.WithError(err).Warn("idempotency response not stored")
			}
			return nil
		}
	}
}

// replay answers a request whose key is already taken.
func replay(ctx context.Context, c echo.Context, rdb *redis.Client, key, sum string, log *logrus.Entry) error {
	cur, err := loadEntry(ctx, rdb, key)
	if err != nil {
		log.WithError(err).Warn("idempotency entry unreadable")
	}
	switch {
	case cur.BodySHA256 != "" && cur.BodySHA256 != sum:
		return errJSON(c, http.StatusConflict, HeaderRequestID+" reused with different body")
	case !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0:
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	default:
		return errJSON(c, http.StatusConflict, "request is already in progress")
	}
}
