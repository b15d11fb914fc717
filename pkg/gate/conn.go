package gate

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/bastionmc/bastion/pkg/protocol"
	"github.com/bastionmc/bastion/pkg/protocol/packets"
	"github.com/bastionmc/bastion/pkg/queue"
	"github.com/bastionmc/bastion/pkg/transport"
	"github.com/bastionmc/bastion/pkg/verify"
)

// handshakeID is the fixed wire ID of the handshake packet. It
// predates the versioned registry tables and never moves.
const handshakeID = 0x00

// handleConn drives one accepted connection from handshake to verdict.
// It returns when the connection is done; the transport closes it.
func (g *Gate) handleConn(tc *transport.Conn) {
	defer func() {
		g.metrics.RxBytes.Add(float64(tc.BytesRead()))
		g.metrics.TxBytes.Add(float64(tc.BytesWritten()))
	}()

	host := tc.RemoteHost()

	// Blacklisted addresses are dropped before a single byte is read.
	listed, err := g.blacklist.Has(g.ctx, g.keyer.Address(host))
	if err != nil {
		g.log.Warnf("%s: blacklist lookup failed: %v", host, err)
		return
	}
	if listed {
		g.log.Debugf("%s: dropped blacklisted connection", host)
		return
	}

	_ = tc.SetReadDeadline(time.Now().Add(g.cfg.HandshakeTimeout))

	f, err := tc.ReadFrame()
	if err != nil {
		return
	}
	if f.ID != handshakeID {
		return
	}
	var hs packets.Handshake
	if err := hs.Decode(protocol.NewReader(f.Body), 0); err != nil {
		return
	}

	switch hs.Intent {
	case protocol.IntentStatus:
		g.serveStatus(tc, hs.ProtocolVersion)
	case protocol.IntentLogin, protocol.IntentTransfer:
		g.serveLogin(tc, &hs, f.Wire)
	default:
		g.log.Debugf("%s: handshake with intent %d dropped", host, hs.Intent)
	}
}

// statusResponse is the server list document.
type statusResponse struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
	} `json:"players"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
}

// serveStatus answers the server list exchange locally: the status
// document, then the ping echo. Status traffic never touches the
// queue, the caches, or the join counters.
func (g *Gate) serveStatus(tc *transport.Conn, v protocol.Version) {
	var doc statusResponse
	doc.Version.Name = g.cfg.Status.VersionName
	doc.Version.Protocol = int32(v)
	doc.Players.Max = g.cfg.Status.MaxPlayers
	doc.Players.Online = g.cfg.Status.Online
	doc.Description.Text = g.cfg.Status.MOTD
	body, err := json.Marshal(doc)
	if err != nil {
		g.log.Errorf("status document: %v", err)
		return
	}

	// At most one request and one ping per connection.
	for i := 0; i < 2; i++ {
		f, err := tc.ReadFrame()
		if err != nil {
			return
		}
		kind, ok := g.reg.Lookup(v, protocol.PhaseStatus, packets.Serverbound, f.ID)
		if !ok {
			return
		}
		switch kind {
		case packets.KindStatusRequest:
			resp := &packets.StatusResponse{JSON: string(body)}
			if g.send(tc, v, protocol.PhaseStatus, resp) != nil {
				return
			}
		case packets.KindPing:
			var p packets.Ping
			if p.Decode(protocol.NewReader(f.Body), v) != nil {
				return
			}
			_ = g.send(tc, v, protocol.PhaseStatus, &p)
			return
		}
	}
}

// serveLogin handles a login or transfer intent: verified addresses
// are handed off, everything else goes through admission into the
// verification pipeline.
func (g *Gate) serveLogin(tc *transport.Conn, hs *packets.Handshake, captured []byte) {
	host := tc.RemoteHost()
	v := hs.ProtocolVersion
	g.metrics.Joins.Inc()

	// Returning verified clients take the splice path without another
	// frame being decoded; their login start flows through the copy.
	hit, err := g.verified.Has(g.ctx, g.keyer.Address(host))
	if err != nil {
		g.log.Warnf("%s: verified lookup failed: %v", host, err)
		g.loginDisconnect(tc, v, g.cfg.Messages.Busy)
		return
	}
	if hit {
		g.handoff(tc, v, captured)
		return
	}

	f, err := tc.ReadFrame()
	if err != nil {
		return
	}
	kind, ok := g.reg.Lookup(v, protocol.PhaseLogin, packets.Serverbound, f.ID)
	if !ok || kind != packets.KindLoginStart {
		g.punish(tc, v, host, verify.KindProtocol, "opened login without login start")
		return
	}
	var ls packets.LoginStart
	if err := ls.Decode(protocol.NewReader(f.Body), v); err != nil {
		g.punish(tc, v, host, verify.KindProtocol, "sent a malformed login start")
		return
	}

	if !v.Supported() {
		g.log.Debugf("%s: unsupported protocol version %d", host, v)
		g.loginDisconnect(tc, v, g.cfg.Messages.UnsupportedVersion)
		return
	}
	if !g.usernameRE.MatchString(ls.Username) {
		g.punish(tc, v, host, verify.KindProtocol, "sent an invalid username")
		return
	}

	decision, err := g.queue.TryAdmit(g.ctx, host)
	if err != nil {
		g.log.Warnf("%s: admission lookup failed: %v", host, err)
		g.loginDisconnect(tc, v, g.cfg.Messages.Busy)
		return
	}
	switch decision {
	case queue.Admitted:
		g.runSession(tc, hs, ls.Username)
	case queue.AlreadyVerified:
		// Promoted between the check above and admission. The login
		// start is already consumed, so it is replayed alongside the
		// handshake.
		g.handoff(tc, v, captured, f.Wire)
	case queue.Blacklisted:
		g.log.Debugf("%s: dropped blacklisted connection", host)
	case queue.AlreadyQueued:
		g.loginDisconnect(tc, v, g.cfg.Messages.AlreadyVerifying)
	case queue.AtCapacity, queue.Throttled:
		g.log.Debugf("%s: rejected, queue %s", host, decision)
		g.loginDisconnect(tc, v, g.cfg.Messages.Busy)
	}
}

// runSession feeds the connection through the verification engine and
// applies the verdict.
func (g *Gate) runSession(tc *transport.Conn, hs *packets.Handshake, username string) {
	host := tc.RemoteHost()

	g.metrics.Attempts.Inc()
	g.verifying.Add(1)
	defer g.verifying.Add(-1)

	// The session's own deadline governs from here.
	_ = tc.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	var sess *verify.Session
	sess = g.engine.NewSession(verify.SessionParams{
		Sink:     tc,
		Addr:     host,
		Username: username,
		Version:  hs.ProtocolVersion,
		Geyser:   g.isBridge(hs.ServerAddress, username),
		OnDone: func(verdict error) {
			g.settle(tc, sess, host, verdict)
			close(done)
		},
	})
	sess.Start()

	for {
		f, err := tc.ReadFrame()
		if err != nil {
			sess.Abort(err)
			break
		}
		sess.HandleFrame(f)
	}
	<-done
}

// settle disposes of a resolved session exactly once: releases the
// queue slot, records the verdict, sends the parting message, and
// closes the connection, which also unblocks the read loop.
func (g *Gate) settle(tc *transport.Conn, sess *verify.Session, host string, verdict error) {
	defer tc.Close()
	defer g.queue.Release(host)

	if verdict == nil {
		g.metrics.Succeeded.Inc()
		stamp := time.Now().UTC().Format(time.RFC3339)
		if err := g.verified.Put(g.ctx, g.keyer.Address(host), stamp); err != nil {
			g.log.Warnf("%s: verified cache write failed: %v", host, err)
		}
		sess.SendDisconnect(g.cfg.Messages.Verified)
		return
	}

	fe := verify.Classify(verdict)
	g.metrics.Failed.WithLabelValues(fe.Kind.String()).Inc()
	if fe.Benign() {
		return
	}
	if err := g.blacklist.Put(g.ctx, g.keyer.Address(host), fe.Reason); err != nil {
		g.log.Warnf("%s: blacklist write failed: %v", host, err)
	}
	sess.SendDisconnect(g.cfg.Messages.Failed)
}

// punish applies a pre-session failure verdict: count it, blacklist
// the address, and kick.
func (g *Gate) punish(tc *transport.Conn, v protocol.Version, host string, kind verify.Kind, reason string) {
	g.log.Infof("%s: failed verification: %s (%s)", host, reason, kind)
	g.metrics.Failed.WithLabelValues(kind.String()).Inc()
	if err := g.blacklist.Put(g.ctx, g.keyer.Address(host), reason); err != nil {
		g.log.Warnf("%s: blacklist write failed: %v", host, err)
	}
	g.loginDisconnect(tc, v, g.cfg.Messages.Failed)
}

// handoff passes a verified returning client along. Proxy mode splices
// to the backend, replaying the captured frames so the backend sees
// the client's original byte stream. Reconnect mode has no backend in
// the data path and kicks with the verified message for the outer
// routing layer to act on.
func (g *Gate) handoff(tc *transport.Conn, v protocol.Version, captured ...[]byte) {
	host := tc.RemoteHost()

	if g.cfg.Mode == HandoffReconnect {
		g.log.Debugf("%s: verified, kicking for reconnect", host)
		g.loginDisconnect(tc, v, g.cfg.Messages.Verified)
		return
	}

	backend, err := g.dialBackend()
	if err != nil {
		g.log.Warnf("%s: backend %s unreachable: %v", host, g.cfg.Backend, err)
		g.loginDisconnect(tc, v, g.cfg.Messages.BackendDown)
		return
	}

	var initial []byte
	for _, wire := range captured {
		initial = append(initial, wire...)
	}
	g.log.Debugf("%s: verified, splicing to %s", host, g.cfg.Backend)
	toBackend, toClient, err := transport.Splice(tc.NetConn(), backend, initial)
	if err != nil {
		g.log.Warnf("%s: splice to %s failed: %v", host, g.cfg.Backend, err)
	}

	// Spliced traffic bypasses the conn's own counters.
	g.metrics.RxBytes.Add(float64(toBackend))
	g.metrics.TxBytes.Add(float64(toClient))
}

func (g *Gate) dialBackend() (net.Conn, error) {
	if g.cfg.Dial != nil {
		return g.cfg.Dial(g.ctx, g.cfg.Backend)
	}
	return transport.Dial(g.ctx, g.cfg.Backend, g.cfg.DialTimeout)
}

func (g *Gate) isBridge(serverAddress, username string) bool {
	if g.cfg.BridgeDetector == nil {
		return false
	}
	return g.cfg.BridgeDetector(serverAddress, username)
}

// loginDisconnect kicks a client still in the login phase. Best
// effort; the connection closes either way.
func (g *Gate) loginDisconnect(tc *transport.Conn, v protocol.Version, reason string) {
	p := &packets.LoginDisconnect{ReasonJSON: packets.ChatJSON(reason)}
	if err := g.send(tc, v, protocol.PhaseLogin, p); err != nil {
		g.log.Debugf("%s: disconnect write failed: %v", tc.RemoteHost(), err)
	}
}

// send encodes p under the registry ID for (v, ph) and flushes it.
func (g *Gate) send(tc *transport.Conn, v protocol.Version, ph protocol.Phase, p packets.Packet) error {
	id, ok := g.reg.ID(v, ph, packets.Clientbound, p.Kind())
	if !ok {
		return fmt.Errorf("gate: no %v id for %v at %v", ph, p.Kind(), v)
	}
	var w protocol.Writer
	if err := p.Encode(&w, v); err != nil {
		return err
	}
	if err := tc.WriteFrame(id, w.Bytes()); err != nil {
		return err
	}
	return tc.Flush()
}
