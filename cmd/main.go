/*
Copyright 2025 Velora Payments Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	velora "github.com/velorapay/velora"
	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/internal/notification"
)

// Velora represents the CLI application, encapsulating the root Cobra command.
type Velora struct {
	cmd *cobra.Command
}

// veloraInstance holds the runtime service instance and its configuration,
// shared across subcommands.
type veloraInstance struct {
	velora *velora.Velora
	cnf    *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the service instance before
// any subcommand executes.
func preRun(app *veloraInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("velora.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newVelora, err := setupVelora(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.velora = newVelora
		app.cnf = cnf

		return nil
	}
}

// setupVelora wires the datasource and the orchestration service from
// configuration.
func setupVelora(cfg *config.Configuration) (*velora.Velora, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newVelora, err := velora.NewVelora(db)
	if err != nil {
		return nil, fmt.Errorf("error creating velora: %v", err)
	}
	return newVelora, nil
}

// NewCLI creates the command-line interface for the Velora service.
func NewCLI() *Velora {
	var configFile string
	v := &veloraInstance{}

	var rootCmd = &cobra.Command{
		Use:   "velora",
		Short: "Cross-border transfer orchestration",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./velora.json", "Configuration file for velora")

	rootCmd.PersistentPreRunE = preRun(v)

	rootCmd.AddCommand(serverCommands(v))
	rootCmd.AddCommand(workerCommands(v))

	return &Velora{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during
// execution.
func (w Velora) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
