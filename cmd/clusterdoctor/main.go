package main

import (
    "errors"
    "log"
    "os"

    "github.com/spf13/cobra"

    doctorcli "github.com/amirimatin/cluster-doctor/pkg/cli"
)

func main() {
    err := newRoot().Execute()
    switch {
    case err == nil:
    case errors.Is(err, doctorcli.ErrInfected):
        os.Exit(2)
    default:
        log.Fatal(err)
    }
}

func newRoot() *cobra.Command {
    root := &cobra.Command{
        Use:           "clusterdoctor",
        Short:         "Offline consistency checks for sharded cluster agency dumps",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    doctorcli.AddAll(root)
    return root
}
