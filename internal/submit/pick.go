package submit

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// Prober runs check on host and returns an error if it fails.
type Prober func(ctx context.Context, host, check string) error

// SSHProbe runs check over a quiet ssh connection.
func SSHProbe(ctx context.Context, host, check string) error {
	return exec.CommandContext(ctx, "ssh", "-q", host, check).Run()
}

// BrokenMachines probes <prefix>1 through <prefix><count> and returns the
// hosts where the check failed.
func BrokenMachines(ctx context.Context, pick config.PickConfig, probe Prober) ([]string, error) {
	var broken []string
	for i := 1; i <= pick.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		host := fmt.Sprintf("%s%d", pick.HostPrefix, i)
		if err := probe(ctx, host, pick.CheckCmd); err != nil {
			utils.PrintDebug("%s failed check: %v", host, err)
			broken = append(broken, host)
		}
	}
	return broken, nil
}
