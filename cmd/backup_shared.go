package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/studyhall-app/studyhall/internal/infrastructure/config"
	"github.com/studyhall-app/studyhall/internal/usecase/backup"
)

// newBackupService resolves the configured driver and DSN into the backup
// service shared by the export and import commands.
func newBackupService(cfg *config.Config, batchSize int) (*backup.Service, error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, fmt.Errorf("resolve database driver: %w", err)
	}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, fmt.Errorf("resolve database dsn: %w", err)
	}
	return backup.NewService(driver, dsn, backup.WithBatchSize(batchSize))
}

func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

func normalizeTables(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		result = append(result, strings.ToLower(name))
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}
