package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"bukukas/pkg/apperr"
	"bukukas/pkg/attachment"
	"bukukas/pkg/auth"
	"bukukas/pkg/config"
	"bukukas/pkg/export"
	"bukukas/pkg/ledger"
	"bukukas/pkg/logging"
	"bukukas/pkg/member"
	"bukukas/pkg/session"
	"bukukas/web"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// server holds the services the handlers call into.
type server struct {
	cfg      *config.Config
	db       *gorm.DB
	baseLog  *slog.Logger
	log      *slog.Logger
	authLog  *slog.Logger
	auth     *auth.Authenticator
	sessions *session.Manager
	ledger   *ledger.Service
	members  *member.Store
	files    *attachment.Store
	exporter *export.Exporter
}

func newServer(cfg *config.Config, db *gorm.DB, store session.Store, log *slog.Logger) (*server, error) {
	files, err := attachment.New(cfg.UploadDir, cfg.MaxUploadBytes, cfg.MaxImageBytes, logging.Component(log, logging.ComponentAttachment))
	if err != nil {
		return nil, err
	}
	members := member.NewStore(db, cfg.DB.QueryTimeout, cfg.MemberDeletePolicy, files, logging.Component(log, logging.ComponentMember))
	return &server{
		cfg:      cfg,
		db:       db,
		baseLog:  log,
		log:      logging.Component(log, logging.ComponentHTTP),
		authLog:  logging.Component(log, logging.ComponentAuth),
		auth:     auth.NewAuthenticator(db),
		sessions: session.NewManager(store, []byte(cfg.SessionSecret), cfg.SessionTTL, cfg.CookieSecure),
		ledger: ledger.NewService(db, ledger.Options{
			Timeout:      cfg.DB.QueryTimeout,
			Attachments:  files,
			Members:      members,
			RejectPolicy: cfg.AttachmentRejectPolicy,
			Logger:       logging.Component(log, logging.ComponentLedger),
		}),
		members:  members,
		files:    files,
		exporter: export.New(cfg.ReportsDir, logging.Component(log, logging.ComponentExport)),
	}, nil
}

// router builds the gin engine with templates, middleware and routes.
func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestLogger(s.baseLog), gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	tmpl, err := web.Parse()
	if err != nil {
		// templates are embedded; a parse error is a build defect
		panic(fmt.Sprintf("parse templates: %v", err))
	}
	r.SetHTMLTemplate(tmpl)
	r.NoRoute(func(c *gin.Context) {
		s.renderError(c, apperr.NotFound("page"))
	})

	s.setupRoutes(r)
	return r
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", s.healthHandler)
	r.GET("/login", s.loginPage)
	r.POST("/login", s.loginHandler)
	r.GET("/logout", s.logoutHandler)

	authGroup := r.Group("")
	authGroup.Use(s.requireSession())

	authGroup.GET("/", s.require(capView), s.indexHandler)
	authGroup.GET("/tambah", s.require(capWrite), s.tambahPage)
	authGroup.POST("/tambah", s.require(capWrite), s.tambahHandler)
	authGroup.GET("/export_excel", s.require(capView), s.exportHandler)
	authGroup.GET("/bukti/:file", s.require(capView), s.buktiHandler)

	authGroup.GET("/edit/:id", s.require(capManageKas), s.editPage)
	authGroup.POST("/edit/:id", s.require(capManageKas), s.editHandler)
	authGroup.GET("/hapus/:id", s.require(capManageKas), s.hapusHandler)

	authGroup.GET("/members", s.require(capView), s.membersPage)
	authGroup.POST("/add_member", s.require(capManageMembers), s.addMemberHandler)
	authGroup.GET("/edit_member/:id", s.require(capManageMembers), s.editMemberPage)
	authGroup.POST("/edit_member/:id", s.require(capManageMembers), s.editMemberHandler)
	authGroup.GET("/delete_member/:id", s.require(capManageMembers), s.deleteMemberHandler)
}

// page fills the values every template expects.
func (s *server) page(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	if id, ok := currentIdentity(c); ok {
		data["Identity"] = &id
	}
	data["Flash"] = popFlash(c)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	return data
}

// renderError is the error boundary: it logs the detail and shows the public message.
func (s *server) renderError(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := apperr.PublicMessage(err)
	switch {
	case status >= http.StatusInternalServerError:
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	case status == http.StatusNotFound:
		msg = "Data tidak ditemukan."
	case errors.Is(err, apperr.ErrForbidden):
		s.authLog.Warn("access denied", "username", c.GetString("username"), "path", c.Request.URL.Path)
	}
	_ = c.Error(err)
	c.HTML(status, "error", s.page(c, http.StatusText(status), gin.H{"Status": status, "Message": msg}))
	c.Abort()
}

func (s *server) healthHandler(c *gin.Context) {
	if err := pingDB(c, s.db); err != nil {
		s.log.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
