package commands

import (
	"fmt"
	"os/exec"

	"github.com/ampliconworks/ampliflow/internal/tools"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools are installed",
		Long: `Look up every external tool the pipeline invokes and report where each
was found. Tools that are not on the search path can still be used by
pointing to their directory in the tools: section of ampliflow.yaml, or
interactively during a run.`,
		RunE: runDoctor,
	}
}

// checkedTools lists every external dependency, required ones first.
var checkedTools = []struct {
	name     string
	required bool
}{
	{tools.Cutadapt, true},
	{tools.Vsearch, true},
	{tools.Seqkit, true},
	{tools.RarefyScript, false},
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Tool", "Required", "Status", "Path"})

	missing := 0
	for _, tool := range checkedTools {
		required := "optional"
		if tool.required {
			required = "required"
		}

		path, err := exec.LookPath(tool.name)
		if err != nil {
			if tool.required {
				missing++
			}
			t.AppendRow(table.Row{tool.name, required, "not found", ""})
			continue
		}
		t.AppendRow(table.Row{tool.name, required, "ok", path})
	}
	t.Render()

	if missing > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d required tool(s) missing. Install them or configure their directories under tools: in ampliflow.yaml.\n", missing)
	}
	return nil
}
