package api

import (
	"time"

	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/service"
	"github.com/yourname/healthday/internal/storage"
)

// App is what the handlers need from the running process.
type App interface {
	Logger() internal.Logger
	Gateway() storage.Gateway
	View() *service.DayView
	Sessions() *service.EditSessions
	Location() *time.Location
	EditOptions() []service.EditOption
}

type Server struct {
	logger   internal.Logger
	gateway  storage.Gateway
	view     *service.DayView
	sessions *service.EditSessions
	loc      *time.Location
	editOpts []service.EditOption
}

func NewServer(logger internal.Logger, gw storage.Gateway, view *service.DayView, sessions *service.EditSessions, loc *time.Location, editOpts ...service.EditOption) *Server {
	return &Server{
		logger:   logger,
		gateway:  gw,
		view:     view,
		sessions: sessions,
		loc:      loc,
		editOpts: editOpts,
	}
}

func (s *Server) Logger() internal.Logger           { return s.logger }
func (s *Server) Gateway() storage.Gateway          { return s.gateway }
func (s *Server) View() *service.DayView            { return s.view }
func (s *Server) Sessions() *service.EditSessions   { return s.sessions }
func (s *Server) Location() *time.Location          { return s.loc }
func (s *Server) EditOptions() []service.EditOption { return s.editOpts }
