package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/auth"
)

func NewRouter(app App, provider auth.Provider, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()), CORSMiddleware(corsOrigins))
	r.Use(auth.AuthMiddleware(provider, app.Logger()))

	stepsWrite := auth.RequirePermissions(internal.WritePermission(internal.KindSteps))

	r.GET("/day", GetDay(app))
	r.PUT("/day", PutDay(app))
	r.POST("/day/prev", PageDay(app, -1))
	r.POST("/day/next", PageDay(app, 1))
	r.POST("/day/reload", ReloadDay(app))

	r.POST("/edit", PostEdit(app))
	r.GET("/edit/:id", GetEdit(app))
	r.PATCH("/edit/:id", PatchEdit(app))
	r.POST("/edit/:id/save", stepsWrite, SaveEdit(app))
	r.DELETE("/edit/:id/steps", stepsWrite, DeleteEditSteps(app))
	r.DELETE("/edit/:id", DeleteEdit(app))

	r.POST("/records/steps", stepsWrite, PostSteps(app))
	r.POST("/records/heart-rate", auth.RequirePermissions(internal.WritePermission(internal.KindHeartRate)), PostHeartRate(app))
	r.POST("/records/sleep", auth.RequirePermissions(internal.WritePermission(internal.KindSleep)), PostSleep(app))
	return r
}
