package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"record-pubsub/internal/core/network"
	"record-pubsub/internal/keytopic"
	"record-pubsub/internal/recordapi"
	"record-pubsub/internal/recordrouter"
)

func main() {
	addr := flag.String("addr", ":8090", "http listen address")
	transport := flag.String("transport", "libp2p", "pubsub transport: libp2p or memory")
	listen := flag.String("listen", "/ip4/0.0.0.0/tcp/0", "comma separated libp2p listen multiaddrs")
	bootstrap := flag.String("bootstrap", "", "comma separated bootstrap peer multiaddrs")
	enableMDNS := flag.Bool("mdns", true, "discover peers on the local network")
	rendezvous := flag.String("rendezvous", "record-pubsub", "mdns service name")
	identity := flag.String("identity", "", "path of the persistent libp2p identity key")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ps network.PubSub
	switch *transport {
	case "memory":
		ps = network.NewFilteredMemoryPubSub(keytopic.TopicPattern)
	case "libp2p":
		p2p, err := network.NewLibp2pPubSub(ctx, network.Libp2pOptions{
			ListenAddrs:     splitList(*listen),
			Bootstrap:       splitList(*bootstrap),
			Rendezvous:      *rendezvous,
			EnableMDNS:      *enableMDNS,
			IdentityKeyFile: *identity,
			TopicPattern:    keytopic.TopicPattern,
		})
		if err != nil {
			log.Fatalf("start libp2p: %v", err)
		}
		defer p2p.Close()
		log.Printf("peer id %s", p2p.PeerID())
		for _, a := range p2p.ListenAddrs() {
			log.Printf("listening on %s", a)
		}
		ps = p2p
	default:
		log.Fatalf("unknown transport %q", *transport)
	}

	mux := http.NewServeMux()
	recordapi.NewServer(recordrouter.New(ps)).Register(mux)

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Printf("record-web listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
