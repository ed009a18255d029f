/*
 * r4000sim - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/r4000sim/r4000sim/config"
	"github.com/r4000sim/r4000sim/console"
	"github.com/r4000sim/r4000sim/cpu"
	"github.com/r4000sim/r4000sim/engine"
	"github.com/r4000sim/r4000sim/events"
	"github.com/r4000sim/r4000sim/hosterr"
	"github.com/r4000sim/r4000sim/logger"
	"github.com/r4000sim/r4000sim/membus"
	"github.com/r4000sim/r4000sim/membus/devices"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Directive file")
	optMem := getopt.IntLong("mem", 'm', 0, "Memory size in KB")
	optCPUs := getopt.IntLong("cpus", 'n', 0, "Number of CPUs")
	optBoot := getopt.StringLong("boot", 'b', "", "Boot image")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Verbose logging")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, hosterr.Wrap(hosterr.IO, err))
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := *optDebug
	Logger = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, &debug))
	slog.SetDefault(Logger)

	if err := run(*optConfig, *optMem, *optCPUs, *optBoot); err != nil {
		Logger.Error(err.Error())
		os.Exit(hosterr.ExitCode(err))
	}
}

func run(configPath string, memKB, cpus int, bootImage string) error {
	d := config.Default()
	if configPath != "" {
		var err error
		d, err = config.LoadFile(d, configPath)
		if err != nil {
			return err
		}
	}
	if memKB > 0 {
		d.MemKB = memKB
	}
	if cpus > 0 {
		d.CPUs = cpus
	}
	if bootImage != "" {
		d.BootImage = bootImage
	}
	if err := d.Validate(); err != nil {
		return err
	}

	bus := membus.NewBus(d.MemKB, Logger)

	if d.BootImage != "" {
		data, err := os.ReadFile(d.BootImage)
		if err != nil {
			return hosterr.Wrap(hosterr.IO, err)
		}
		if !bus.LoadImage(d.BootAddr-0xA0000000, data) {
			return hosterr.New(hosterr.MEM, "boot image does not fit in RAM")
		}
	}

	evs := events.NewList()

	cores := make([]*cpu.CPU, d.CPUs)
	for i := range cores {
		cores[i] = cpu.NewCPU(bus, cpu.WithID(i), cpu.WithLogger(Logger))
		if d.BootImage != "" {
			cores[i].SetPC(d.BootAddr)
		}
	}

	con := devices.NewConsole(0x1F000000, os.Stdin, os.Stdout)
	if !bus.Register(con) {
		return hosterr.New(hosterr.INIT, "console device window conflict")
	}
	clk := devices.NewClock(0x1F000100, cores[0], evs, 7)
	if !bus.Register(clk) {
		return hosterr.New(hosterr.INIT, "clock device window conflict")
	}

	eng := engine.NewCore(cores, bus, evs, Logger)
	eng.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		Logger.Info("received shutdown signal")
		eng.Stop()
		os.Exit(0)
	}()

	repl := console.NewREPL(eng, os.Stdout)
	if err := repl.Run(); err != nil {
		eng.Stop()
		return hosterr.Wrap(hosterr.INTERN, err)
	}

	eng.Stop()
	return nil
}
