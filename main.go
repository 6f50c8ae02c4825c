package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spooky-finn/go-bsdex-bridge/config"
	"github.com/spooky-finn/go-bsdex-bridge/domain"
	"github.com/spooky-finn/go-bsdex-bridge/infrastructure/kafka"
	promclient "github.com/spooky-finn/go-bsdex-bridge/infrastructure/prometheus"
	"github.com/spooky-finn/go-bsdex-bridge/provider/bsdex"
	"github.com/spooky-finn/go-bsdex-bridge/rpc"
	"github.com/spooky-finn/go-bsdex-bridge/usecase"
	"google.golang.org/grpc"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(".env")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logrus.SetLevel(cfg.LogLevel)
	if config.DebugMode {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshotUseCase := usecase.NewOrderBookSnapshotUseCase(bsdex.ChannelOrderBook)
	handlers := domain.EventHandlers{snapshotUseCase}

	var publisher *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		handlers = append(handlers, publisher)
		logrus.Infof("publishing events to kafka topic %s", cfg.KafkaTopic)
	}

	feed := bsdex.NewFeed(handlers)
	for _, s := range cfg.Subscriptions {
		feed.Subscribe(s.Channel, s.Instrument)
	}

	metricsServer := promclient.NewServer(cfg.MetricsAddr, promclient.NewRegistry())
	go promclient.StartPromClientServer(metricsServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatalf("failed to listen on %s", cfg.GRPCAddr)
	}
	grpcServer := grpc.NewServer()
	rpc.RegisterMarketDataServiceServer(grpcServer, rpc.NewServer(snapshotUseCase, &rpc.ValidationServiceConfig{
		AvailableInstruments: cfg.Instruments(bsdex.ChannelOrderBook),
	}))
	go func() {
		logrus.Infof("grpc server listening at %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Error("grpc server stopped")
		}
	}()

	client, err := bsdex.NewStreamClient(cfg.WSEndpoint, cfg.AccessToken)
	if err != nil {
		logrus.WithError(err).Fatal("invalid stream endpoint")
	}
	client.Connect()

	err = feed.Run(ctx, client)
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("feed stopped")
	}

	logrus.Info("shutting down")
	_ = client.Close()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("failed to flush kafka publisher")
		}
	}
}
