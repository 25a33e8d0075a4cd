package http

import (
	"bufio"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/shelfstream/internal/config"
	"github.com/mrlokans/shelfstream/internal/workspace"
)

const (
	sessionKeyViewerID = "viewer_id"

	// contextKeyWorkspace holds the *workspace.Workspace of the request.
	contextKeyWorkspace = "workspace"

	// localViewer owns the single workspace used when sessions are disabled.
	localViewer = "local"
)

// WorkspaceProvider hands out the workspace of a viewer token.
type WorkspaceProvider interface {
	Get(token string) *workspace.Workspace
}

// ViewerSessions wraps scs.SessionManager. A session carries nothing but an
// opaque viewer id; everything else lives in the viewer's workspace.
type ViewerSessions struct {
	*scs.SessionManager
}

// NewViewerSessions creates a session manager backed by the sessions table.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewViewerSessions(sqlDB *sql.DB, cfg config.Viewer) (*ViewerSessions, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime

	sm.Cookie.Name = "viewer"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &ViewerSessions{SessionManager: sm}, nil
}

// ViewerID returns the viewer id of the request, assigning a fresh one on
// the first visit.
func (vs *ViewerSessions) ViewerID(r *http.Request) string {
	ctx := r.Context()
	if id := vs.GetString(ctx, sessionKeyViewerID); id != "" {
		return id
	}
	id := uuid.NewString()
	vs.Put(ctx, sessionKeyViewerID, id)
	return id
}

// sessionResponseWriter wraps http.ResponseWriter to intercept WriteHeader
// and write session cookies before headers are sent.
type sessionResponseWriter struct {
	gin.ResponseWriter
	sm            *scs.SessionManager
	request       *http.Request
	wroteHeader   bool
	cookieWritten bool
}

func (w *sessionResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionResponseWriter) WriteHeaderNow() {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionResponseWriter) writeSessionCookie() {
	if w.cookieWritten {
		return
	}
	w.cookieWritten = true

	ctx := w.request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			return
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *sessionResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionLoadSave returns a Gin middleware that wraps the session manager's
// LoadAndSave functionality. This must be used before any session operations.
func (vs *ViewerSessions) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(vs.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := vs.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &sessionResponseWriter{
			ResponseWriter: c.Writer,
			sm:             vs.SessionManager,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		// Ensure session cookie is written even if no response body
		if !srw.wroteHeader {
			srw.writeSessionCookie()
		}
	}
}

// WorkspaceMiddleware attaches the viewer's workspace to the request.
// Without sessions every request shares the local workspace.
func WorkspaceMiddleware(sessions *ViewerSessions, workspaces WorkspaceProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := localViewer
		if sessions != nil {
			viewer = sessions.ViewerID(c.Request)
		}
		c.Set(contextKeyWorkspace, workspaces.Get(viewer))
		c.Next()
	}
}

// currentWorkspace returns the workspace set by WorkspaceMiddleware.
func currentWorkspace(c *gin.Context) *workspace.Workspace {
	if v, ok := c.Get(contextKeyWorkspace); ok {
		if ws, ok := v.(*workspace.Workspace); ok {
			return ws
		}
	}
	return nil
}

// requireWorkspace responds with 500 when no workspace middleware ran.
func requireWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws := currentWorkspace(c)
	if ws == nil {
		respondError(c, http.StatusInternalServerError, "no workspace for request")
		return nil, false
	}
	return ws, true
}
