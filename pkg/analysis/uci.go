package analysis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mateScoreCP stands in for a forced mate when the engine reports one.
const mateScoreCP = 30000

// searchResult is what one "go" command yields once the engine settles.
type searchResult struct {
	bestMove string
	scoreCP  int
	mateIn   int
	hasScore bool
}

// UCIEngine wraps one UCI-compatible engine subprocess.
type UCIEngine struct {
	ID uuid.UUID

	cmd *exec.Cmd

	stdinPipe  io.WriteCloser
	stdoutPipe io.ReadCloser
	reader     *bufio.Reader

	writeMu  sync.Mutex // guards stdin writes
	searchMu sync.Mutex // one search in flight per engine

	// score state accumulated by readLoop between "go" and "bestmove"
	scoreMu sync.Mutex
	lastCP  int
	lastMat int
	scored  bool

	quitChan   chan struct{}
	resultChan chan searchResult

	logger *zap.Logger
}

// NewUCIEngine starts the engine process and switches it into UCI mode.
func NewUCIEngine(enginePath string, logger *zap.Logger) (*UCIEngine, error) {
	cmd := exec.Command(enginePath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StdoutPipe error: %w", err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("StdinPipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting engine: %w", err)
	}

	e := &UCIEngine{
		ID:         uuid.New(),
		cmd:        cmd,
		stdinPipe:  stdin,
		stdoutPipe: stdout,
		reader:     bufio.NewReader(stdout),
		quitChan:   make(chan struct{}),
		resultChan: make(chan searchResult, 1),
		logger:     logger,
	}

	if err := e.writeCommand("uci"); err != nil {
		return nil, fmt.Errorf("error sending uci cmd: %w", err)
	}

	go e.readLoop()

	return e, nil
}

func (e *UCIEngine) readLoop() {
	for {
		select {
		case <-e.quitChan:
			return
		default:
			line, err := e.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					e.logger.Info("engine closed stdout", zap.String("engine_id", e.ID.String()))
				} else {
					e.logger.Error("error reading engine output", zap.Error(err))
				}
				return
			}
			line = strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(line, "info "):
				e.recordScore(line)

			case strings.HasPrefix(line, "bestmove"):
				fields := strings.Fields(line)
				if len(fields) < 2 {
					continue
				}
				res := searchResult{bestMove: fields[1]}
				e.scoreMu.Lock()
				res.scoreCP, res.mateIn, res.hasScore = e.lastCP, e.lastMat, e.scored
				e.scored = false
				e.scoreMu.Unlock()

				select {
				case e.resultChan <- res:
				default:
				}
			}
		}
	}
}

// recordScore remembers the latest "info ... score cp N" or "score mate N"
// so the following bestmove can be paired with an evaluation.
func (e *UCIEngine) recordScore(line string) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-2; i++ {
		if fields[i] != "score" {
			continue
		}
		kind := fields[i+1]
		val, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return
		}
		e.scoreMu.Lock()
		switch kind {
		case "cp":
			e.lastCP, e.lastMat, e.scored = val, 0, true
		case "mate":
			cp := mateScoreCP
			if val < 0 {
				cp = -mateScoreCP
			}
			e.lastCP, e.lastMat, e.scored = cp, val, true
		}
		e.scoreMu.Unlock()
		return
	}
}

// Search runs one bounded search and waits for the engine's best move.
func (e *UCIEngine) Search(ctx context.Context, fen string, moveTimeMs int64) (searchResult, error) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	// Drop any stale result from an abandoned search.
	select {
	case <-e.resultChan:
	default:
	}

	if err := e.writeCommand("position fen " + fen); err != nil {
		return searchResult{}, fmt.Errorf("send position: %w", err)
	}
	if err := e.writeCommand(fmt.Sprintf("go movetime %d", moveTimeMs)); err != nil {
		return searchResult{}, fmt.Errorf("send go: %w", err)
	}

	select {
	case res := <-e.resultChan:
		if res.bestMove == "" || res.bestMove == "(none)" {
			return searchResult{}, fmt.Errorf("engine returned no move: %w", ErrEngineUnavailable)
		}
		return res, nil
	case <-ctx.Done():
		// Ask the engine to settle so the next search starts clean.
		_ = e.writeCommand("stop")
		return searchResult{}, ctx.Err()
	}
}

func (e *UCIEngine) writeCommand(cmd string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	_, err := io.WriteString(e.stdinPipe, cmd+"\n")
	return err
}

// Close shuts the subprocess down.
func (e *UCIEngine) Close() error {
	close(e.quitChan)
	_ = e.writeCommand("quit")
	return e.cmd.Wait()
}
