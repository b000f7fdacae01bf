package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"smartcover-proxy/internal/audit"
)

// auditChanSize is the buffer size of the async audit channel. When the
// buffer is full new events are dropped rather than blocking a request.
const auditChanSize = 256

// auditWriteTimeout bounds each individual database write.
const auditWriteTimeout = 5 * time.Second

// auditLog queues an authentication event for the audit trail.
//
// It is a no-op when the audit trail is disabled, and never blocks the
// request path: writes happen on a background goroutine.
func (s *Server) auditLog(r *http.Request, action, username string, success bool, detail string) {
	if s.auditCh == nil {
		return
	}

	entry := &audit.Entry{
		Action:    action,
		Username:  username,
		SourceIP:  sourceIP(r),
		RequestID: requestIDFromContext(r.Context()),
		Success:   success,
		Detail:    detail,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit channel full, dropping event", "action", action)
	}
}

// drainAuditLog writes queued audit entries serially until the server
// context is cancelled, then flushes whatever remains in the buffer.
func (s *Server) drainAuditLog(ctx context.Context) {
	write := func(entry *audit.Entry) {
		writeCtx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()
		if err := s.auditRepo.Create(writeCtx, entry); err != nil {
			s.logger.Error("failed to write audit entry", "action", entry.Action, "error", err)
		}
	}

	for {
		select {
		case entry := <-s.auditCh:
			write(entry)
		case <-ctx.Done():
			// Flush buffered entries before exiting.
			for {
				select {
				case entry := <-s.auditCh:
					write(entry)
				default:
					return
				}
			}
		}
	}
}

// handleListAuditLog returns recent authentication events, newest first.
// Supports ?action=, ?limit= and ?offset= query parameters.
func (s *Server) handleListAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	filter := audit.Filter{
		Action: r.URL.Query().Get("action"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadType, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadType, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
