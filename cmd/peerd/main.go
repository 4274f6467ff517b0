// peerd is a server-side WebRTC data-channel endpoint.
//
// It answers browser offers over a JSON/HTTP signalling surface, performs
// ICE connectivity checks, completes the DTLS handshake as the active party
// and surfaces negotiated DataChannels.
//
// Usage:
//
//	peerd -cert cert.pem -key key.pem [options]
//
// Options:
//
//	-cert   Path to the PEM certificate (required)
//	-key    Path to the PEM private key (required)
//	-addr   Signalling HTTP listen address (default: ":8080")
//	-stun   STUN server for public address discovery (default: stun.l.google.com:19302)
//	-mdns   Advertise the signalling service via mDNS (default: off)
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/logging"

	"github.com/peerd/peerd/pkg/discovery"
	"github.com/peerd/peerd/pkg/endpoint"
	"github.com/peerd/peerd/pkg/session"
	"github.com/peerd/peerd/pkg/signalling"
)

func main() {
	var (
		certPath = flag.String("cert", "", "path to PEM certificate")
		keyPath  = flag.String("key", "", "path to PEM private key")
		addr     = flag.String("addr", ":8080", "signalling HTTP listen address")
		stunSrv  = flag.String("stun", endpoint.DefaultSTUNServer, "STUN server for public address discovery")
		mdns     = flag.Bool("mdns", false, "advertise the signalling service via mDNS")
	)
	flag.Parse()

	if *certPath == "" || *keyPath == "" {
		log.Fatal("both -cert and -key are required")
	}

	certPEM, err := os.ReadFile(*certPath)
	if err != nil {
		log.Fatalf("reading certificate: %v", err)
	}
	keyPEM, err := os.ReadFile(*keyPath)
	if err != nil {
		log.Fatalf("reading key: %v", err)
	}

	lf := logging.NewDefaultLoggerFactory()
	logger := lf.NewLogger("peerd")

	ep, err := endpoint.New(endpoint.Config{
		CertificatePEM: certPEM,
		KeyPEM:         keyPEM,
		Prober:         &endpoint.STUNProber{Server: *stunSrv, LoggerFactory: lf},
		OnChannel: func(s *session.Session, ch *session.DataChannel) {
			// Echo until the peer closes the channel.
			go echo(logger, s, ch)
		},
		LoggerFactory: lf,
	})
	if err != nil {
		log.Fatalf("creating endpoint: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ep.Start(ctx); err != nil {
		log.Fatalf("starting endpoint: %v", err)
	}

	facade, err := signalling.NewFacade(signalling.FacadeConfig{
		Endpoint:      ep,
		LoggerFactory: lf,
	})
	if err != nil {
		log.Fatalf("creating signalling facade: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	facade.Routes(router)

	server := &http.Server{Addr: *addr, Handler: router}
	go func() {
		logger.Infof("signalling surface on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("signalling server: %v", err)
		}
	}()

	if *mdns {
		adv, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          listenPort(*addr),
			Fingerprint:   ep.Fingerprint(),
			LoggerFactory: lf,
		})
		if err != nil {
			log.Fatalf("creating advertiser: %v", err)
		}
		if err := adv.Advertise(); err != nil {
			logger.Warnf("mDNS advertisement failed: %v", err)
		} else {
			defer adv.Shutdown()
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	ep.Stop()
}

// echo copies every message back to its sender.
func echo(logger logging.LeveledLogger, s *session.Session, ch *session.DataChannel) {
	logger.Infof("session %s stream %d open", s.ID(), ch.StreamID())
	buf := make([]byte, 65536)
	for {
		n, isString, err := ch.ReadMessage(buf)
		if err != nil {
			logger.Infof("session %s stream %d closed: %v", s.ID(), ch.StreamID(), err)
			return
		}
		if _, err := ch.WriteMessage(buf[:n], isString); err != nil {
			logger.Warnf("session %s stream %d write: %v", s.ID(), ch.StreamID(), err)
			return
		}
	}
}

// listenPort extracts the TCP port from a listen address like ":8080".
func listenPort(addr string) int {
	l, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return 0
	}
	return l.Port
}
