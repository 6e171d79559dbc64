package es

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/resto_admin/internal/config"
)

func NewClient(cfg config.Config, l *slog.Logger) (*elasticsearch.Client, error) {
	l = l.With("component", "elasticsearch", "url", cfg.ESURL)
	l.Info("es_connecting")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_info_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("es: info: %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
