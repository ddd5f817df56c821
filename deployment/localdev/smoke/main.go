// Command smoke sends a forecast request to a locally running mirador-forecast
// over gRPC and prints the response.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-forecast/internal/api"
	forecastv1 "github.com/miradorstack/mirador-forecast/internal/grpc/forecastv1"
	"github.com/miradorstack/mirador-forecast/internal/models"
	"github.com/miradorstack/mirador-forecast/internal/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:50061", "gRPC address of mirador-forecast")
	input := flag.String("input", "deployment/localdev/request.yaml", "forecast request file")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	logger := utils.NewLoggerTo(os.Stderr, "info", false)
	if err := run(*addr, *input, *timeout); err != nil {
		logger.Error("smoke request failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(addr, input string, timeout time.Duration) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req models.ForecastRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	payload, err := api.ToProtoStruct(req)
	if err != nil {
		return err
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := forecastv1.NewForecastEngineClient(conn).Forecast(ctx, payload)
	if err != nil {
		return err
	}
	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
