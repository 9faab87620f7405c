package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func printTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// render prints v as JSON or, for the table format, the rows built by toRows.
func render(w io.Writer, format string, v any, header []string, toRows func() [][]string) error {
	switch format {
	case outputJSON:
		return printJSON(w, v)
	case "", outputTable:
		printTable(w, header, toRows())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

func dumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := printJSON(file, v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func formatTime(t recruiting.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatMetric(m analytics.Metric, unit string) string {
	arrow := map[analytics.Direction]string{
		analytics.Up:      "↑",
		analytics.Down:    "↓",
		analytics.Neutral: "→",
	}[m.Direction]
	return fmt.Sprintf("%d%s (%s %d%% %s)", m.Value, unit, arrow, m.Delta, analytics.TrendLabel)
}

func printDashboard(w io.Writer, d analytics.Dashboard) {
	fmt.Fprintf(w, "生成时间: %s\n\n", d.GeneratedAt.Local().Format("2006-01-02 15:04:05"))

	printTable(w, []string{"项目", "候选人", "简历", "面试"}, [][]string{{
		fmt.Sprint(d.Counts[store.Projects]),
		fmt.Sprint(d.Counts[store.Candidates]),
		fmt.Sprint(d.Counts[store.Resumes]),
		fmt.Sprint(d.Counts[store.Interviews]),
	}})

	rows := make([][]string, 0, len(d.Projects))
	for _, p := range d.Projects {
		rows = append(rows, []string{p.Title, p.Status.Label(), p.Priority.Label(), fmt.Sprintf("%.0f%%", p.Percent)})
	}
	printTable(w, []string{"职位", "状态", "优先级", "进度"}, rows)

	s := d.Interviews
	printTable(w, []string{"面试总数", "已完成", "已安排", "进行中", "已取消", "完成率"}, [][]string{{
		fmt.Sprint(s.Total),
		fmt.Sprint(s.Completed),
		fmt.Sprint(s.Scheduled),
		fmt.Sprint(s.InProgress),
		fmt.Sprint(s.Cancelled),
		fmt.Sprintf("%.0f%%", s.CompletionRate*100),
	}})

	printTable(w, []string{"简历处理效率", "面试转化率", "招聘周期"}, [][]string{{
		formatMetric(d.Efficiency, "%"),
		formatMetric(d.Conversion, "%"),
		formatMetric(d.Cycle, "天"),
	}})
}
