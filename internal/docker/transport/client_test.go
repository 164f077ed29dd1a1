package transport_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

// scriptedServer accepts connections on a Unix socket in a temp dir
// and hands each one to handle. It stands in for the daemon so tests
// control every byte on the wire.
func scriptedServer(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "docker.sock")
	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handle(conn)
		}
	}()
	return socket
}

// readRequestHead consumes the request up to the blank line and
// returns it for assertions.
func readRequestHead(conn net.Conn) string {
	br := bufio.NewReader(conn)
	var head strings.Builder
	for {
		line, err := br.ReadString('\n')
		head.WriteString(line)
		if err != nil || line == "\r\n" {
			return head.String()
		}
	}
}

func newTestClient(socket string) *transport.Client {
	return transport.NewClient(transport.Config{
		SocketPath:     socket,
		ConnectTimeout: time.Second,
		IOTimeout:      2 * time.Second,
	})
}

func TestDo(t *testing.T) {
	t.Run("content-length framed response", func(t *testing.T) {
		heads := make(chan string, 1)
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			heads <- readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 13\r\n\r\n{\"ok\":\"true\"}")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/version"))
		require.NoError(t, err)

		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int64(13), resp.ContentLength)
		assert.Equal(t, `{"ok":"true"}`, string(body))

		head := <-heads
		assert.True(t, strings.HasPrefix(head, "GET /version HTTP/1.1\r\n"))
		assert.Contains(t, head, "Host: docker\r\n")
	})

	t.Run("query string is encoded into the target", func(t *testing.T) {
		heads := make(chan string, 1)
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			heads <- readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n[]")
		})

		req := transport.NewRequest("GET", "/containers/json")
		req.Query.Set("all", "true")
		req.Query.Set("limit", "5")

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		_, err = resp.Bytes()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(<-heads, "GET /containers/json?all=true&limit=5 HTTP/1.1\r\n"))
	})

	t.Run("request body carries Content-Length", func(t *testing.T) {
		received := make(chan string, 1)
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			br := bufio.NewReader(conn)
			var head strings.Builder
			for {
				line, _ := br.ReadString('\n')
				head.WriteString(line)
				if line == "\r\n" {
					break
				}
			}
			body := make([]byte, 16)
			n, _ := io.ReadFull(br, body[:15])
			received <- head.String() + string(body[:n])
			io.WriteString(conn, "HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n")
		})

		req := transport.NewRequest("POST", "/containers/create")
		req.SetBody([]byte(`{"Image":"ab"}!`), "application/json")

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		_, err = resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)

		got := <-received
		assert.Contains(t, got, "Content-Length: 15\r\n")
		assert.Contains(t, got, "Content-Type: application/json\r\n")
		assert.True(t, strings.HasSuffix(got, `{"Image":"ab"}!`))
	})

	t.Run("chunked response reassembled across fragmented writes", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\n" +
			"Transfer-Encoding: chunked\r\n" +
			"\r\n" +
			"6\r\nhello \r\n" +
			"5\r\nworld\r\n" +
			"0\r\n\r\n"

		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			// Dribble the response in 3-byte fragments so chunk
			// boundaries never line up with reads.
			for i := 0; i < len(raw); i += 3 {
				end := min(i+3, len(raw))
				io.WriteString(conn, raw[i:end])
				time.Sleep(time.Millisecond)
			}
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/events"))
		require.NoError(t, err)

		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, int64(-1), resp.ContentLength)
		assert.Equal(t, "hello world", string(body))
	})

	t.Run("chunk size lines accept hex and extensions", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"+
				"A;ext=1\r\n0123456789\r\n"+
				"0\r\n\r\n")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.NoError(t, err)
		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(body))
	})

	t.Run("read-to-EOF framing when no length is declared", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\n\r\nraw body until close")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.NoError(t, err)
		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "raw body until close", string(body))
	})

	t.Run("204 has no body even without Content-Length", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 204 No Content\r\n\r\n")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("POST", "/containers/x/start"))
		require.NoError(t, err)
		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Empty(t, body)
	})

	t.Run("header lookup is case-insensitive", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\ncontent-length: 2\r\ncOnTeNt-TyPe: text/plain\r\n\r\nhi")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.NoError(t, err)
		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "hi", string(body))
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	})
}

func TestDoErrors(t *testing.T) {
	t.Run("missing socket surfaces a connect error", func(t *testing.T) {
		client := transport.NewClient(transport.Config{
			SocketPath:     filepath.Join(t.TempDir(), "nope.sock"),
			ConnectTimeout: time.Second,
		})
		_, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.Error(t, err)
		assert.True(t, transport.IsConnect(err))
	})

	t.Run("malformed status line is a protocol error", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "TOTALLY NOT HTTP\r\n\r\n")
		})

		client := newTestClient(socket)
		_, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		var pe *transport.ProtocolError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("unsupported HTTP version is a protocol error", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/2.0 200 OK\r\n\r\n")
		})

		client := newTestClient(socket)
		_, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		var pe *transport.ProtocolError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("connection closed before blank line is a protocol error", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n")
		})

		client := newTestClient(socket)
		_, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		var pe *transport.ProtocolError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("content-length body truncation is an error not clean EOF", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nonly this")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.NoError(t, err)
		_, err = resp.Bytes()
		require.Error(t, err)
		var pe *transport.ProtocolError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("truncated chunked body is a protocol error", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n6\r\nhel")
		})

		client := newTestClient(socket)
		resp, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.NoError(t, err)
		_, err = resp.Bytes()
		require.Error(t, err)
		var pe *transport.ProtocolError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("stalled response times out with timeout kind", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			// Accept and never respond.
			defer conn.Close()
			readRequestHead(conn)
			time.Sleep(3 * time.Second)
		})

		client := transport.NewClient(transport.Config{
			SocketPath:     socket,
			ConnectTimeout: time.Second,
			IOTimeout:      100 * time.Millisecond,
		})
		_, err := client.Do(context.Background(), transport.NewRequest("GET", "/x"))
		require.Error(t, err)
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, transport.KindTimeout, te.Kind)
		assert.True(t, te.Timeout())
	})
}

func TestDoStream(t *testing.T) {
	t.Run("cancellation interrupts a blocked stream read", func(t *testing.T) {
		release := make(chan struct{})
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nfirst\r\n")
			<-release
		})
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		client := newTestClient(socket)
		resp, err := client.DoStream(ctx, transport.NewRequest("GET", "/events"))
		require.NoError(t, err)
		defer resp.Body.Close()

		buf := make([]byte, 16)
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "first", string(buf[:n]))

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err = resp.Body.Read(buf)
		require.Error(t, err)
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, transport.KindCanceled, te.Kind)
	})

	t.Run("no deadline applies to a slow stream", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n")
			time.Sleep(300 * time.Millisecond)
			io.WriteString(conn, "4\r\nlate\r\n0\r\n\r\n")
		})

		client := transport.NewClient(transport.Config{
			SocketPath:     socket,
			ConnectTimeout: time.Second,
			IOTimeout:      100 * time.Millisecond,
		})
		resp, err := client.DoStream(context.Background(), transport.NewRequest("GET", "/events"))
		require.NoError(t, err)
		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "late", string(body))
	})
}

func TestDoHijack(t *testing.T) {
	t.Run("101 upgrade hands over a duplex connection", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 101 UPGRADED\r\nConnection: Upgrade\r\nUpgrade: tcp\r\n\r\n")
			// Echo one line back.
			br := bufio.NewReader(conn)
			line, _ := br.ReadString('\n')
			io.WriteString(conn, "echo: "+line)
		})

		client := newTestClient(socket)
		req := transport.NewRequest("POST", "/containers/x/attach")
		hijacked, resp, err := client.DoHijack(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, hijacked)
		defer hijacked.Close()
		assert.Equal(t, 101, resp.StatusCode)

		_, err = hijacked.Write([]byte("ping\n"))
		require.NoError(t, err)

		br := bufio.NewReader(hijacked)
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "echo: ping\n", line)
	})

	t.Run("error status returns a regular response for mapping", func(t *testing.T) {
		socket := scriptedServer(t, func(conn net.Conn) {
			defer conn.Close()
			readRequestHead(conn)
			io.WriteString(conn, "HTTP/1.1 404 Not Found\r\nContent-Length: 27\r\n\r\n{\"message\":\"No such thing\"}")
		})

		client := newTestClient(socket)
		hijacked, resp, err := client.DoHijack(context.Background(), transport.NewRequest("POST", "/containers/x/attach"))
		require.NoError(t, err)
		assert.Nil(t, hijacked)
		require.NotNil(t, resp)
		assert.Equal(t, 404, resp.StatusCode)

		body, err := resp.Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"No such thing"}`, string(body))
	})
}
