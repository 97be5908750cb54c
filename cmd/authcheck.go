package cmd

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/first2apply/redditbot/config"
	"github.com/first2apply/redditbot/service"
)

func init() {
	rootCmd.AddCommand(authcheckCmd)
}

var authcheckCmd = &cobra.Command{
	Use:   "authcheck",
	Short: "Verifies the configured Reddit credentials can obtain a token",
	Long:  `Verifies the configured Reddit credentials can obtain a token`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.FromEnvfile()

		log.SetLevel(cfg.LogLevel)
		switch cfg.LogFormat {
		case config.LogFormatJSON:
			log.SetFormatter(&log.JSONFormatter{})
		default:
			log.SetFormatter(&log.TextFormatter{})
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Panic(err)
		}
		secretsManagerClient := secretsmanager.NewFromConfig(awsConfig)

		redditService := service.NewRedditService(context.Background(), cfg, secretsManagerClient)

		scope, expires, err := redditService.CheckAuth(context.Background())
		if err != nil {
			log.Fatalf("Reddit auth check failed: %v", err)
		}

		fmt.Println("Reddit granted an access token for the configured user.")
		fmt.Printf("scope: %s\nexpires: %s\n", scope, expires.Format("2006-01-02 15:04:05 MST"))
	},
}
