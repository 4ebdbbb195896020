package redis

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeServer speaks enough RESP2 for the replay store: HELLO is refused so
// the client falls back to AUTH/SELECT, and SET supports NX with EX/PX.
type fakeServer struct {
	ln       net.Listener
	password string

	mu   sync.Mutex
	dbs  map[int]map[string]time.Time
	cmds []string
	down bool

	wg sync.WaitGroup
}

func newFakeServer(t *testing.T, password string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{
		ln:       ln,
		password: password,
		dbs:      make(map[int]map[string]time.Time),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) Addr() string { return s.ln.Addr().String() }

func (s *fakeServer) Close() {
	s.ln.Close()
	s.wg.Wait()
}

// SetDown makes the server answer every data command with an error.
func (s *fakeServer) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *fakeServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cmds...)
}

func (s *fakeServer) TTL(db int, key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.dbs[db][key]
	if !ok {
		return 0, false
	}
	return time.Until(exp), true
}

func (s *fakeServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	authed := s.password == ""
	db := 0
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}
		name := strings.ToUpper(string(args[0]))

		s.mu.Lock()
		s.cmds = append(s.cmds, name)
		down := s.down
		s.mu.Unlock()

		switch {
		case name == "AUTH":
			if string(args[len(args)-1]) != s.password {
				writeError(w, "WRONGPASS invalid username-password pair")
				break
			}
			authed = true
			writeSimpleString(w, "OK")
		case !authed:
			writeError(w, "NOAUTH Authentication required.")
		case name == "PING":
			writeSimpleString(w, "PONG")
		case name == "SELECT":
			n, err := strconv.Atoi(string(args[1]))
			if err != nil {
				writeError(w, "ERR invalid DB index")
				break
			}
			db = n
			writeSimpleString(w, "OK")
		case name == "SET" && down:
			writeError(w, "LOADING Redis is loading the dataset in memory")
		case name == "SET":
			s.handleSet(w, db, args)
		default:
			writeError(w, fmt.Sprintf("ERR unknown command '%s'", name))
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *fakeServer) handleSet(w *bufio.Writer, db int, args [][]byte) {
	if len(args) < 3 {
		writeError(w, "ERR wrong number of arguments for 'set' command")
		return
	}
	key := string(args[1])
	nx := false
	ttl := time.Duration(0)
	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			nx = true
		case "EX", "PX":
			if i+1 >= len(args) {
				writeError(w, "ERR syntax error")
				return
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil || n <= 0 {
				writeError(w, "ERR invalid expire time in 'set' command")
				return
			}
			if strings.EqualFold(string(args[i]), "EX") {
				ttl = time.Duration(n) * time.Second
			} else {
				ttl = time.Duration(n) * time.Millisecond
			}
			i++
		default:
			writeError(w, "ERR syntax error")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.dbs[db]
	if keys == nil {
		keys = make(map[string]time.Time)
		s.dbs[db] = keys
	}
	if exp, ok := keys[key]; ok && nx && time.Now().Before(exp) {
		writeNullBulk(w)
		return
	}
	exp := time.Now().Add(100 * 365 * 24 * time.Hour)
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	keys[key] = exp
	writeSimpleString(w, "OK")
}

// RESP2 request decoding and reply encoding.

const maxBulkLen = 512 * 1024

var errProtocol = errors.New("resp: protocol error")

func readCommand(r *bufio.Reader) ([][]byte, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '*' {
		// Inline command: "PING\r\n"
		var out [][]byte
		for _, f := range strings.Fields(line) {
			out = append(out, []byte(f))
		}
		return out, nil
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: invalid array length", errProtocol)
	}

	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulkString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

func readBulkString(r *bufio.Reader) ([]byte, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '$' {
		return nil, fmt.Errorf("%w: expected bulk string", errProtocol)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 || n > maxBulkLen {
		return nil, fmt.Errorf("%w: invalid bulk length", errProtocol)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: invalid bulk terminator", errProtocol)
	}
	return buf[:n], nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", fmt.Errorf("%w: missing CRLF", errProtocol)
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

func writeSimpleString(w *bufio.Writer, s string) {
	w.WriteString("+" + s + "\r\n")
}

func writeError(w *bufio.Writer, s string) {
	w.WriteString("-" + s + "\r\n")
}

func writeNullBulk(w *bufio.Writer) {
	w.WriteString("$-1\r\n")
}
