// Command arrowdash serves the password-gated reporting UI over the
// configured clinical dataset. It loads the app config, optionally
// initializes a metrics backend, wires the datasource, and listens.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"arrowdash/internal/config"
	"arrowdash/internal/datasource"
	"arrowdash/internal/metrics"
	"arrowdash/internal/metrics/prompush"
	"arrowdash/internal/report"
	"arrowdash/internal/webui"
)

func main() {
	var (
		cfgPath           string
		addrFlg           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/arrowdash.json", "app config JSON path")
	flag.StringVar(&addrFlg, "addr", "", "listen address (overrides config)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	var app config.App
	err = json.NewDecoder(f).Decode(&app)
	f.Close()
	if err != nil {
		fatalf("decode config: %v", err)
	}
	app.ApplyDefaults()
	if addrFlg != "" {
		app.Server.Addr = addrFlg
	}

	issues := config.ValidateApp(app)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default off.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("arrowdash", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v backend=%v", gwURL, backendName)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}
	case "", "none":
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	src, closeSrc, err := datasource.FromConfig(ctx, app.Dataset)
	if err != nil {
		fatalf("datasource: %v", err)
	}
	defer closeSrc()

	srv, err := webui.NewServer(webui.Config{
		Addr:   app.Server.Addr,
		Secret: os.Getenv(app.Server.PasswordEnv),
	}, report.NewEngine(src, app), app)
	if err != nil {
		fatalf("server: %v", err)
	}

	if *verbose {
		log.Printf("dataset: kind=%s variables=%d buckets=%d",
			app.Dataset.Kind, len(app.Variables), len(app.Buckets))
	}
	log.Printf("listening on %s", app.Server.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("%v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
