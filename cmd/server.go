package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/first2apply/redditbot/config"
	"github.com/first2apply/redditbot/database"
	"github.com/first2apply/redditbot/pipeline"
	"github.com/first2apply/redditbot/service"
)

func init() {
	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Runs the redditbot server",
	Long:  `Runs the redditbot server`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg := config.FromEnvfile()

		log.SetLevel(cfg.LogLevel)

		switch cfg.LogFormat {
		case config.LogFormatJSON:
			log.SetFormatter(&log.JSONFormatter{})
		default:
			log.SetFormatter(&log.TextFormatter{})
		}

		if cfg.TestModeEnabled {
			log.Info("TEST MODE ENABLED")
		}

		awsConfig, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		secretsManagerClient := secretsmanager.NewFromConfig(awsConfig)

		databaseURL := cfg.PostgresURL
		if databaseURL == "" {
			// Get the DB secrets from AWS Secrets Manager
			result, err := secretsManagerClient.GetSecretValue(context.Background(), &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.PostgresSecretPath)})
			if err != nil {
				log.Fatal(err.Error())
			}
			var pgSecrets config.PostgresSecretData
			err = json.Unmarshal([]byte(*result.SecretString), &pgSecrets)
			if err != nil {
				log.Fatalf("postgres secrets read error: %v", err)
			}
			databaseURL = pgSecrets.ConnectionString
		}

		/*
			Graceful shutdown is possible with errgroup + signal.NotifyContext
			NotifyContext returns a context that will close on OS signals to terminate the process
			errgroup uses that context, and also closes it in case a goroutine errors out
		*/
		ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL)
		defer done()
		g, gCtx := errgroup.WithContext(ctx)

		redditService := service.NewRedditService(gCtx, cfg, secretsManagerClient)
		bot := service.NewChatbot(gCtx, cfg, secretsManagerClient)

		database := database.NewDatabase(databaseURL)
		if err = database.Connect(gCtx); err != nil {
			log.Fatalf("error connecting to database: %v", err)
		}
		defer database.Disconnect()

		pipe := pipeline.NewPipeline(redditService, database, bot, redditService, pipeline.Config{
			Subreddits:        cfg.Bot.Subreddits,
			PostsPerSubreddit: cfg.Bot.PostsPerSubreddit,
			ReplyQuota:        cfg.Bot.ReplyQuota,
			TestMode:          cfg.TestModeEnabled,
		})

		// SkipIfStillRunning keeps a slow tick from overlapping the next
		// scheduled one; the pipeline holds its own lock as a second line of
		// defense for the eager startup run.
		scheduler := cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
		))
		if _, err := scheduler.AddFunc(cfg.Bot.Schedule, func() { pipe.Run(gCtx) }); err != nil {
			log.Fatalf("error scheduling pipeline: %v", err)
		}

		healthchecker := service.NewHealthchecker(8080)

		g.Go(func() error {
			defer log.Info("exiting pipeline")
			// Run once on startup, then on the schedule
			pipe.Run(gCtx)
			scheduler.Start()
			<-gCtx.Done()
			<-scheduler.Stop().Done()
			return nil
		})

		// For deployed instances, provide a basic healthcheck endpoint to show it's online
		g.Go(func() error {
			if err := healthchecker.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		// ...and shut down the server if the bot needs to terminate
		g.Go(func() error {
			<-gCtx.Done()
			defer log.Info("exiting healthchecker")
			return healthchecker.Server.Shutdown(context.Background())
		})

		err = g.Wait()
		if err != nil {
			log.Errorf("caught error: %v", err)
		}
	},
}
