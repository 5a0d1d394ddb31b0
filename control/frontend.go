package control

import (
	"bufio"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/eruption-linux/eruption-core/logging"
)

// FrontEndListener accepts line-oriented commands over a Unix domain
// socket from the GTK/tray front-end process and forwards them onto a
// Queue, mirroring DBusListener's "only ever enqueues" contract. Unlike
// the D-Bus surface there is no equivalent IPC library in the retrieved
// examples for a private, same-host, single-client socket, so this uses
// net.Listener directly (DESIGN.md records the justification).
//
// Protocol, one command per line:
//
//	load-script <path>
//	switch-profile <path>
//	set-brightness <float>
//	set-enable-sfx <true|false>
type FrontEndListener struct {
	ln    net.Listener
	queue *Queue
	log   *logging.Logger
}

// ListenFrontEnd opens a Unix domain socket at socketPath and returns a
// FrontEndListener ready to Serve.
func ListenFrontEnd(socketPath string, queue *Queue, log *logging.Logger) (*FrontEndListener, error) {
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %q", socketPath)
	}
	return &FrontEndListener{ln: ln, queue: queue, log: log}, nil
}

// Close stops accepting new connections.
func (l *FrontEndListener) Close() error {
	return l.ln.Close()
}

// Serve accepts connections until the listener is closed. It is meant to
// run on its own goroutine, matching the dedicated front-end thread in
// spec.md §4.5.
func (l *FrontEndListener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}
		go l.handle(conn)
	}
}

func (l *FrontEndListener) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if err := l.dispatch(scanner.Text()); err != nil {
			l.log.Warnf("front-end command rejected: %v", err)
		}
	}
}

func (l *FrontEndListener) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "load-script":
		if len(fields) != 2 {
			return errors.Errorf("load-script: want 1 argument, got %d", len(fields)-1)
		}
		l.queue.Send(Message{Kind: KindLoadScript, Path: fields[1]})
	case "switch-profile":
		if len(fields) != 2 {
			return errors.Errorf("switch-profile: want 1 argument, got %d", len(fields)-1)
		}
		l.queue.Send(Message{Kind: KindSwitchProfile, Path: fields[1]})
	case "set-brightness":
		if len(fields) != 2 {
			return errors.Errorf("set-brightness: want 1 argument, got %d", len(fields)-1)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return errors.Wrap(err, "set-brightness")
		}
		l.queue.Send(Message{Kind: KindSetBrightness, Brightness: v})
	case "set-enable-sfx":
		if len(fields) != 2 {
			return errors.Errorf("set-enable-sfx: want 1 argument, got %d", len(fields)-1)
		}
		v, err := strconv.ParseBool(fields[1])
		if err != nil {
			return errors.Wrap(err, "set-enable-sfx")
		}
		l.queue.Send(Message{Kind: KindSetEnableSfx, EnableSfx: v})
	default:
		return errors.Errorf("unknown command %q", fields[0])
	}
	return nil
}
