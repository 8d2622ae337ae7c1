package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/queue"
)

var (
	publishTo      string
	publishSubject string
	publishBody    string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Queue a single email job",
	Long:  "Encode one email job and publish it to the configured channel, printing the message ID.",
	RunE:  runPublish,
}

// init registers the publish command and its flags.
func init() {
	publishCmd.Flags().StringVar(&publishTo, "to", "", "recipient address")
	publishCmd.Flags().StringVar(&publishSubject, "subject", "", "email subject")
	publishCmd.Flags().StringVar(&publishBody, "body", "", "HTML body")
	_ = publishCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, logger := mustLoad()

	ctx := context.Background()
	res := &resources{}
	defer res.Close()

	msg, err := buildMessaging(ctx, cfg, res, logger)
	if err != nil {
		return fmt.Errorf("build messaging: %w", err)
	}

	producer := queue.NewEmailProducer(msg, cfg.PubSubTopicID, cfg.PublishTimeout, logger)
	messageID, err := producer.Publish(ctx, job.EmailJob{
		To:      publishTo,
		Subject: publishSubject,
		Body:    publishBody,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), messageID)
	return nil
}
