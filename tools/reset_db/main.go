package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gastbook/config"
	"gastbook/internal/model"
	"gastbook/pkg/db"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

type tabler interface {
	TableName() string
}

// tables in reverse creation order so children are cleared first.
func tables() []string {
	models := model.All()
	out := make([]string, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		if t, ok := models[i].(tabler); ok {
			out = append(out, t.TableName())
		}
	}
	return out
}

func main() {
	var (
		yes      bool
		truncate bool
	)

	cmd := &cobra.Command{
		Use:   "reset_db",
		Short: "Clear every gastbook table on the configured MySQL database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadConfig()
			if cfg.Database.Driver != "" && cfg.Database.Driver != "mysql" {
				return fmt.Errorf("reset_db only supports mysql, configured driver is %q", cfg.Database.Driver)
			}

			conn, err := sql.Open("mysql", db.MySQLDSN(cfg.Database))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer conn.Close()
			if err := conn.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			names := tables()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", cfg.Database.Database)
			fmt.Fprintf(out, "This will DELETE ALL DATA in: %s\n", strings.Join(names, ", "))
			if !yes {
				fmt.Fprint(out, "Type 'YES' to confirm: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(line) != "YES" {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			ctx := cmd.Context()
			if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
				return err
			}
			defer conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1")

			failed := 0
			for _, table := range names {
				stmt := fmt.Sprintf("DELETE FROM `%s`", table)
				if truncate {
					stmt = fmt.Sprintf("TRUNCATE TABLE `%s`", table)
				}
				if _, err := conn.ExecContext(ctx, stmt); err != nil {
					fmt.Fprintf(out, "  %-24s failed: %v\n", table, err)
					failed++
					continue
				}
				if !truncate {
					if _, err := conn.ExecContext(ctx, fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = 1", table)); err != nil {
						fmt.Fprintf(out, "  %-24s cleared, id reset failed: %v\n", table, err)
						continue
					}
				}
				fmt.Fprintf(out, "  %-24s ok\n", table)
			}
			if failed > 0 {
				return fmt.Errorf("%d tables could not be cleared", failed)
			}
			fmt.Fprintln(out, "Done. Schema kept, ids reset to 1.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "use TRUNCATE instead of DELETE")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
