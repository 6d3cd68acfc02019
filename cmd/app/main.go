package main

import (
	"go.uber.org/fx"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/config"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/metadata"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/service"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/session"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/transport"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		backend.Module,
		service.Module,
		session.Module,
		metadata.Module,
		transport.Module,
		fx.Invoke(func(server *transport.HTTPServer) {}),
	)

	app.Run()
}
