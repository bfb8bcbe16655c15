package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/arozco/mesero/ai/llm"
	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/delivery"
	"github.com/arozco/mesero/dialogue"
	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/internal/version"
	"github.com/arozco/mesero/server"
	"github.com/arozco/mesero/store"
	"github.com/arozco/mesero/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "mesero",
	Short: `A conversational ordering assistant for a small restaurant: menu, prices, delivery areas and orders over chat.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env from the current directory; absence is fine.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:       viper.GetString("mode"),
			Addr:       viper.GetString("addr"),
			Port:       viper.GetInt("port"),
			Data:       viper.GetString("data"),
			Driver:     viper.GetString("driver"),
			DSN:        viper.GetString("dsn"),
			MenuPath:   viper.GetString("menu"),
			CitiesPath: viper.GetString("cities"),
			Version:    version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Menu and cities are independent inputs; load them in parallel and
		// fail startup on the first error.
		var (
			cat  *catalog.Catalog
			area *delivery.Area
			g    errgroup.Group
		)
		g.Go(func() error {
			items, err := catalog.LoadCSV(instanceProfile.MenuPath)
			if err != nil {
				return err
			}
			cat, err = catalog.New(items)
			return err
		})
		g.Go(func() error {
			localities, err := delivery.LoadCSV(instanceProfile.CitiesPath)
			if err != nil {
				return err
			}
			area, err = delivery.New(localities)
			return err
		})
		if err := g.Wait(); err != nil {
			slog.Error("failed to load restaurant data", "error", err)
			return
		}

		dbDriver, err := db.NewDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		var collab dialogue.Collaborator
		if instanceProfile.IsAIEnabled() {
			collab, err = llm.NewService(&llm.Config{
				Provider: instanceProfile.LLMProvider,
				Model:    instanceProfile.LLMModel,
				APIKey:   instanceProfile.LLMAPIKey,
				BaseURL:  instanceProfile.LLMBaseURL,
				Timeout:  instanceProfile.LLMTimeout,
			})
			if err != nil {
				slog.Error("failed to create llm collaborator", "error", err)
				return
			}
		} else {
			slog.Warn("no LLM API key configured, free-form chat is disabled")
		}

		s := server.NewServer(instanceProfile, storeInstance, cat, area, collab)

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			return
		}

		printGreetings(instanceProfile, cat, area)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("menu", "", "path to the menu CSV")
	rootCmd.PersistentFlags().String("cities", "", "path to the delivery cities CSV")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "menu", "cities"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("mesero")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile, cat *catalog.Catalog, area *delivery.Area) {
	fmt.Printf("Mesero %s started successfully!\n", version.String())

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Menu items: %d\n", cat.Len())
	fmt.Printf("Delivery localities: %d\n", area.Len())
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if profile.IsAIEnabled() {
		fmt.Printf("LLM collaborator: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	} else {
		fmt.Println("LLM collaborator: disabled")
	}

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
