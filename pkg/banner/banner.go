package banner

import (
	"fmt"

	"rumagent/pkg/config"
)

const banner = `
██████╗ ██╗   ██╗███╗   ███╗ █████╗  ██████╗ ███████╗███╗   ██╗████████╗
██╔══██╗██║   ██║████╗ ████║██╔══██╗██╔════╝ ██╔════╝████╗  ██║╚══██╔══╝
██████╔╝██║   ██║██╔████╔██║███████║██║  ███╗█████╗  ██╔██╗ ██║   ██║
██╔══██╗██║   ██║██║╚██╔╝██║██╔══██║██║   ██║██╔══╝  ██║╚██╗██║   ██║
██║  ██║╚██████╔╝██║ ╚═╝ ██║██║  ██║╚██████╔╝███████╗██║ ╚████║   ██║
╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝   ╚═╝
`

// Print shows the startup summary for the effective configuration.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Application: %s\n", cfg.Application.ID)
	fmt.Printf("Intake:      %s\n", cfg.Intake.URL)
	fmt.Printf("Data:        %s\n", cfg.Storage.DBPath)
	if version != "" {
		fmt.Printf("Version:     %s\n", version)
	}

	fmt.Println("\n== Checks =====================================================")
	if cfg.Intake.ClientID != "" {
		fmt.Println("- Client ID: OK")
	} else {
		fmt.Println("- Client ID: MISSING (intake may reject unattributed uploads)")
	}
	if cfg.Retention.Enabled {
		cron := cfg.Retention.Cron
		if cron == "" {
			cron = "default"
		}
		fmt.Printf("- Retention: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Retention: disabled (offline devices accumulate batches)")
	}
	if cfg.Debug.Addr != "" {
		fmt.Printf("- Debug endpoints: http://%s/metrics\n", cfg.Debug.Addr)
	} else {
		fmt.Println("- Debug endpoints: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
