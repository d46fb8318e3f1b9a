package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/mikey/llm-phish-detector/internal/adapters/filter"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/di"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var failed bool
	err = container.Invoke(func(
		logger *zap.Logger,
		emailFilter ports.EmailFilter,
		completer core.TextCompleter,
	) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := completer.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close LLM client", zap.Error(err))
				}
			}
		}()

		cli, ok := emailFilter.(*filter.CliFilter)
		if !ok {
			return fmt.Errorf("unexpected filter type %T", emailFilter)
		}

		result, err := analyze(cli, flags, logger)
		if err != nil {
			return err
		}
		failed = !result.Success
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

// analyze reads the message and hands it to the CLI filter, as a parsed
// message when possible and as raw text otherwise
func analyze(cli *filter.CliFilter, flags *di.CLIFlags, logger *zap.Logger) (*core.AnalysisResult, error) {
	input, err := readInput(flags.InputFile, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.Timeout)
	defer cancel()

	if !flags.Raw {
		email, err := parseEmail(input)
		if err == nil {
			return cli.ProcessEmail(ctx, email)
		}
		logger.Debug("Input is not an RFC 822 message, analyzing as raw text", zap.Error(err))
	}

	return cli.ProcessContent(ctx, string(input))
}

func readInput(path string, logger *zap.Logger) ([]byte, error) {
	if path == "" {
		logger.Debug("Reading email from stdin")
		return io.ReadAll(bufio.NewReader(os.Stdin))
	}

	logger.Debug("Reading email from file", zap.String("file", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return data, nil
}

func parseEmail(input []byte) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	if len(msg.Header) == 0 {
		return nil, errors.New("message has no headers")
	}

	email, err := filter.EmailFromMessage(msg)
	if err != nil {
		return nil, err
	}
	if to := msg.Header.Get("To"); to != "" {
		for _, addr := range strings.Split(to, ",") {
			email.To = append(email.To, strings.TrimSpace(addr))
		}
	}
	return email, nil
}
