// Command rv32run loads a statically linked RV32I executable image and
// runs it to completion, optionally emitting a structured step-log
// trace and a per-instruction log through the standard logger (stderr).
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nkowalczyk/rv32i/pkg/loader"
	"github.com/nkowalczyk/rv32i/pkg/rv32"
)

func main() {
	log.SetFlags(0)

	var (
		programPath    string
		stepLogPath    string
		ramSize        uint32
		defaultSP      uint32
		instructionLog bool
	)

	cmd := &cobra.Command{
		Use:   "rv32run",
		Short: "rv32run runs a statically linked RV32I executable image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(programPath, stepLogPath, ramSize, defaultSP, instructionLog)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&programPath, "program-path", "", "path to the executable image (required)")
	flags.StringVar(&stepLogPath, "step-log-path", "", "write a JSON step-log trace to this path")
	flags.Uint32Var(&ramSize, "ram-size", 0, "RAM size in bytes (must be >= the image's required span)")
	flags.Uint32Var(&defaultSP, "default-sp", 0, "initial stack pointer (defaults to the top of RAM)")
	flags.BoolVar(&instructionLog, "instruction-log", false, "print a one-line trace per executed instruction")
	cmd.MarkFlagRequired("program-path")

	cmd.SilenceUsage = true
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(programPath, stepLogPath string, ramSize, defaultSP uint32, instructionLog bool) error {
	data, err := os.ReadFile(programPath)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	image, err := loader.Load(data, ramSize, defaultSP)
	if err != nil {
		return err
	}

	ram := rv32.NewRamFromImage(image.Ram)
	driver := rv32.NewDriver(ram)
	driver.Bus.Register(rv32.NewDefaultDebugExit())
	driver.Bus.Register(rv32.NewDefaultSimpleUart())
	driver.InstructionLog = instructionLog

	driver.Reset()
	driver.CPU.PC.Store(image.InitialPC)
	if err := driver.CPU.Regs.Store(2, image.InitialSP); err != nil {
		return err
	}

	_, trace, runErr := driver.Run()

	if stepLogPath != "" {
		encoded, jsonErr := json.Marshal(trace)
		if jsonErr != nil {
			return fmt.Errorf("encoding step log: %w", jsonErr)
		}
		if writeErr := os.WriteFile(stepLogPath, encoded, 0o644); writeErr != nil {
			return fmt.Errorf("writing step log: %w", writeErr)
		}
	}

	if runErr != nil {
		return runErr
	}
	return nil
}
