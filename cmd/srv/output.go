package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"
)

func printJSON(cctx *cli.Context, v any) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
