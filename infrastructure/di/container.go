package di

import (
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/panel"
	"github.com/Rysh-29/Neuromap/application/services"
	"github.com/Rysh-29/Neuromap/infrastructure/config"
	"github.com/Rysh-29/Neuromap/interfaces/http/rest"
	"github.com/Rysh-29/Neuromap/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Controller *services.CanvasController
	Panel      *panel.DetailPanel
	Router     *rest.Router
}

// Shutdown writes any pending auto-save and waits for background exports
func (c *Container) Shutdown() {
	if c.Controller.Flush() {
		c.Logger.Info("Pending changes saved")
	}
	c.Controller.WaitForExports()
	_ = c.Logger.Sync()
}
