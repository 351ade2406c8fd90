// Package main runs the workouts MCP server over stdio for local editor use.
// The same server is mounted on the main service at /mcp.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/config"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	workoutsmcp "github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/mcp"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout belongs to the MCP transport
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("NPNM_DB_PASS"),
		SSLMode:    cfg.PostgresSSLMode,
		MaxConns:   2,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	server := workoutsmcp.NewServer(db.NewGateway(dbPool))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}
