package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/queue"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/service"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume queued messages",
	Long:  "Consume queued messages from the configured channel.",
}

// init registers consume subcommands.
func init() {
	consumeCmd.AddCommand(consumeEmailsCmd)
	rootCmd.AddCommand(consumeCmd)
}

var consumeEmailsCmd = &cobra.Command{
	Use:   "emails [consumer_name]",
	Short: "Start the email dispatcher",
	Long:  "Start a worker that reads email jobs from the channel and sends them through the email provider.",
	Args:  cobra.MaximumNArgs(1),
	Run:   runConsumeEmails,
}

// runConsumeEmails starts the email dispatcher worker.
func runConsumeEmails(_ *cobra.Command, args []string) {
	cfg, logger := mustLoad()

	consumerName, _ := os.Hostname()
	if len(args) == 1 {
		consumerName = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := &resources{}
	defer res.Close()

	msg, err := buildMessaging(ctx, cfg, res, logger)
	if err != nil {
		logger.Fatalf("Failed to build messaging: %v", err)
	}

	emailProvider, err := buildEmailProvider(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to build email provider: %v", err)
	}

	locker, err := buildLocker(ctx, cfg, res)
	if err != nil {
		logger.Fatalf("Failed to build dispatch lock: %v", err)
	}

	dispatcher := service.NewDispatcher(emailProvider, locker, cfg.SendTimeout, logger)
	consumer := queue.NewEmailConsumer(msg, dispatcher.Handle, queue.ConsumerConfig{
		Topic:        cfg.PubSubTopicID,
		Subscription: cfg.PubSubSubscriptionID,
		ConsumerName: consumerName,
		Concurrency:  cfg.ConsumerConcurrency,
	}, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Received shutdown signal, stopping consumer...")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		logger.Fatalf("Consumer error: %v", err)
	}
}
