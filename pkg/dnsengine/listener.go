package dnsengine

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"github.com/cuemby/netresolved/pkg/backend"
	"github.com/cuemby/netresolved/pkg/dnserr"
	"github.com/cuemby/netresolved/pkg/log"
	"github.com/cuemby/netresolved/pkg/metrics"
)

// tcpIdleTimeout is how long a TCP connection task waits for a framed
// message before abandoning the connection.
const tcpIdleTimeout = 3 * time.Second

const maxUDPMessageSize = 65535

// Identity names a listener task uniquely: the network it serves and the
// address it is bound to.
type Identity struct {
	Network  string
	ListenIP net.IP
}

// Config is the immutable configuration a Listener is bound with.
type Config struct {
	Network       string
	ListenIP      net.IP
	Port          int
	Backend       *atomic.Pointer[backend.Snapshot]
	HostUpstreams *HostUpstreams
	NoProxy       bool
}

// Identity returns this listener's (network, listen IP) identity.
func (c Config) Identity() Identity {
	return Identity{Network: c.Network, ListenIP: c.ListenIP}
}

// Listener owns one UDP socket and one TCP listener bound to the same
// address:port, plus the shared handles needed to answer and forward
// queries on behalf of cfg.Network.
type Listener struct {
	cfg      Config
	udpConn  *net.UDPConn
	tcpLn    *net.TCPListener
	shutdown chan struct{}
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// Bind opens the UDP socket and TCP listener for cfg. Either failure
// leaves nothing bound.
func Bind(cfg Config) (*Listener, error) {
	udpAddr := &net.UDPAddr{IP: cfg.ListenIP, Port: cfg.Port}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, dnserr.WrapIO("udp bind for "+cfg.Identity().String(), err)
	}

	tcpAddr := &net.TCPAddr{IP: cfg.ListenIP, Port: cfg.Port}
	tcpLn, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		udpConn.Close()
		return nil, dnserr.WrapIO("tcp bind for "+cfg.Identity().String(), err)
	}

	return &Listener{
		cfg:      cfg,
		udpConn:  udpConn,
		tcpLn:    tcpLn,
		shutdown: make(chan struct{}),
		log:      log.WithListener(cfg.Network, cfg.ListenIP.String()),
	}, nil
}

// String renders an identity as "network@ip" for logging.
func (id Identity) String() string {
	return id.Network + "@" + id.ListenIP.String()
}

// Start spawns the UDP and TCP serve loops. It returns immediately.
func (l *Listener) Start() {
	l.wg.Add(2)
	go l.serveUDP()
	go l.serveTCP()
}

// Stop closes the shutdown channel and both sockets, then waits for the
// serve loops (and any in-flight TCP connection tasks) to exit. It does
// not wait for detached UDP forwarders, which are independent and will
// complete or time out on their own.
func (l *Listener) Stop() {
	close(l.shutdown)
	l.udpConn.Close()
	l.tcpLn.Close()
	l.wg.Wait()
}

func (l *Listener) isShutdown() bool {
	select {
	case <-l.shutdown:
		return true
	default:
		return false
	}
}

func (l *Listener) serveUDP() {
	defer l.wg.Done()

	buf := make([]byte, maxUDPMessageSize)
	for {
		n, addr, err := l.udpConn.ReadFromUDP(buf)
		if err != nil {
			if l.isShutdown() || errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warn().Err(err).Msg("udp read failed")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		go l.handleUDPPacket(data, addr)
	}
}

func (l *Listener) handleUDPPacket(data []byte, addr *net.UDPAddr) {
	req := new(dns.Msg)
	if err := req.Unpack(data); err != nil {
		l.log.Debug().Err(err).Str("peer", addr.String()).Msg("dropping unparseable udp packet")
		metrics.QueriesTotal.WithLabelValues("dropped").Inc()
		return
	}

	timer := metrics.NewTimer()
	reply := l.respond("udp", req, addr.IP)
	timer.ObserveDurationVec(metrics.QueryDuration, "udp")

	out, err := reply.Pack()
	if err != nil {
		l.log.Warn().Err(err).Msg("failed to pack udp reply")
		return
	}
	if _, err := l.udpConn.WriteToUDP(out, addr); err != nil {
		l.log.Warn().Err(err).Str("peer", addr.String()).Msg("failed to write udp reply")
	}
}

func (l *Listener) serveTCP() {
	defer l.wg.Done()

	for {
		conn, err := l.tcpLn.AcceptTCP()
		if err != nil {
			if l.isShutdown() || errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warn().Err(err).Msg("tcp accept failed")
			continue
		}

		l.wg.Add(1)
		go l.handleTCPConn(conn)
	}
}

func (l *Listener) handleTCPConn(conn *net.TCPConn) {
	defer l.wg.Done()
	defer conn.Close()

	peer := conn.RemoteAddr()
	for {
		conn.SetReadDeadline(time.Now().Add(tcpIdleTimeout))

		data, err := readFramedMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				l.log.Debug().Str("peer", peer.String()).Msg("tcp connection idle, abandoning")
				return
			}
			l.log.Debug().Err(err).Str("peer", peer.String()).Msg("tcp read failed, closing connection")
			return
		}

		req := new(dns.Msg)
		if err := req.Unpack(data); err != nil {
			l.log.Debug().Err(err).Str("peer", peer.String()).Msg("dropping unparseable tcp message")
			metrics.QueriesTotal.WithLabelValues("dropped").Inc()
			continue
		}

		host, _, _ := net.SplitHostPort(peer.String())
		requester := net.ParseIP(host)

		timer := metrics.NewTimer()
		reply := l.respond("tcp", req, requester)
		timer.ObserveDurationVec(metrics.QueryDuration, "tcp")

		out, err := reply.Pack()
		if err != nil {
			l.log.Warn().Err(err).Msg("failed to pack tcp reply")
			return
		}
		if err := writeFramedMessage(conn, out); err != nil {
			l.log.Warn().Err(err).Str("peer", peer.String()).Msg("failed to write tcp reply")
			return
		}
	}
}

// respond answers req, forwarding inline (tcp) or detached (udp) per the
// protocol's connection model, and returns the message ready to send.
func (l *Listener) respond(proto string, req *dns.Msg, requester net.IP) *dns.Msg {
	reply, forward := l.answer(req, requester)
	if !forward {
		return reply
	}

	snap := l.cfg.Backend.Load()
	if resp, ok := l.forwardQuery(proto, req, snap, requester); ok {
		return resp
	}
	reply.Rcode = dns.RcodeNameError
	return reply
}

func readFramedMessage(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFramedMessage(w io.Writer, msg []byte) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(msg)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}
