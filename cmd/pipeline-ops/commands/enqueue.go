package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/dataops-lab/pipeline-lambdas/internal/queue"
	"github.com/dataops-lab/pipeline-lambdas/internal/records"
	"github.com/dataops-lab/pipeline-lambdas/internal/services"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// EnqueueCommand sends webhook payloads from a JSON lines file
func EnqueueCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "enqueue",
		Usage: "Send webhook payloads to the queue",
		Description: `Send one message per line of a JSON lines file. Blank lines are skipped and every
line must be a JSON object unless --no-validate is given.

Examples:
  # Replay captured webhooks into the dev queue
  pipeline-ops --env dev enqueue --file webhooks.jsonl

  # Pipe payloads into a LocalStack queue
  cat webhooks.jsonl | pipeline-ops --endpoint http://localhost:4566 enqueue --queue webhooks --file -`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "JSON lines file, - for stdin",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "queue",
				Aliases: []string{"q"},
				Usage:   "Queue name (defaults to the configured webhooks queue)",
			},
			&cli.BoolFlag{
				Name:  "no-validate",
				Usage: "Send lines without checking they are JSON objects",
			},
		},
		Action: func(c *cli.Context) error {
			in, err := openInput(c.String("file"))
			if err != nil {
				return err
			}
			defer in.Close()

			bodies, err := readBodies(in, !c.Bool("no-validate"))
			if err != nil {
				return err
			}

			container, err := newContainer(c, logger)
			if err != nil {
				return err
			}

			name := c.String("queue")
			if name == "" {
				config, err := get[*services.Config](container)
				if err != nil {
					return err
				}
				name = config.QueueName
			}
			if name == "" {
				return errors.ErrQueueNameRequired
			}

			client, err := get[*sqs.Client](container)
			if err != nil {
				return err
			}

			url, err := queue.ResolveQueueURL(c.Context, client, name)
			if err != nil {
				return err
			}

			sent, err := queue.Enqueue(c.Context, client, url, bodies)
			if err != nil {
				return err
			}

			logger.Info().Str("queue", url).Int("count", sent).Msg("Messages enqueued")
			return nil
		},
	}
}

// readBodies returns the non-blank lines of r; with validate every line must decode
// as a JSON object
func readBodies(r io.Reader, validate bool) ([]string, error) {
	var bodies []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	line := 0
	for scanner.Scan() {
		line++
		body := strings.TrimSpace(scanner.Text())
		if body == "" {
			continue
		}
		if validate {
			if _, err := records.Decode(body); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		bodies = append(bodies, body)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payloads: %w", err)
	}
	return bodies, nil
}
