package metrics

import (
	"fmt"
	"strings"
)

// Report is the usage and health summary printed by the metrics command
// and sent to the admin chat.
type Report struct {
	Usage  []DailyUsage
	Health SysHealth
}

// BuildReport collects usage for the last days and the current health.
func (s *Store) BuildReport(days int, dataPath string) (Report, error) {
	usage, err := s.GetDailyUsage(days)
	if err != nil {
		return Report{}, err
	}
	return Report{Usage: usage, Health: GetSysHealth(dataPath)}, nil
}

// Markdown formats the report with Telegram-style Markdown emphasis.
func (r Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(r.Usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range r.Usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", r.Health.AllocMB, r.Health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", r.Health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", r.Health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", r.Health.DataDiskSize)
	return sb.String()
}
