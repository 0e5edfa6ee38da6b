package fingerprint

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// Lookuper resolves one record type for one domain. Implementations may
// fail; the fingerprint service treats failures as "no records".
type Lookuper interface {
	Lookup(ctx context.Context, domain string, recordType uint16) ([]string, error)
}

type Resolver struct {
	servers     []string
	udpClient   *mdns.Client
	tcpClient   *mdns.Client
	logger      *logrus.Logger
	mu          sync.Mutex
	rotateIndex int
}

func NewResolver(servers []string, timeout time.Duration, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	if len(servers) == 0 {
		servers = systemResolvers()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	udp := &mdns.Client{
		Net:          "udp",
		Timeout:      timeout,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		UDPSize:      1232,
	}
	tcp := &mdns.Client{
		Net:          "tcp",
		Timeout:      timeout,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	return &Resolver{
		servers:   servers,
		udpClient: udp,
		tcpClient: tcp,
		logger:    logger,
	}
}

func (r *Resolver) Lookup(ctx context.Context, domain string, recordType uint16) ([]string, error) {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(domain), recordType)
	msg.RecursionDesired = true
	msg.SetEdns0(1232, false)

	server := r.selectServer()
	resp, _, err := r.udpClient.ExchangeContext(ctx, msg, server)
	if err != nil || resp == nil || resp.Truncated {
		resp, _, err = r.tcpClient.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, fmt.Errorf("dns query %s/%s: %w", domain, mdns.TypeToString[recordType], err)
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("nil DNS response for %s", domain)
	}
	if resp.Rcode != mdns.RcodeSuccess {
		return nil, fmt.Errorf("dns query %s/%s: %s", domain, mdns.TypeToString[recordType], mdns.RcodeToString[resp.Rcode])
	}

	return parseAnswers(resp.Answer, recordType), nil
}

func parseAnswers(rrs []mdns.RR, recordType uint16) []string {
	trimDot := func(s string) string { return strings.TrimSuffix(s, ".") }

	out := make([]string, 0, len(rrs))
	for _, rr := range rrs {
		switch rr := rr.(type) {
		case *mdns.A:
			if recordType == mdns.TypeA {
				out = append(out, rr.A.String())
			}
		case *mdns.AAAA:
			if recordType == mdns.TypeAAAA {
				out = append(out, rr.AAAA.String())
			}
		case *mdns.CNAME:
			// CNAMEs show up in answers for A/AAAA queries too; only
			// count them when CNAME was actually asked for.
			if recordType == mdns.TypeCNAME {
				out = append(out, trimDot(rr.Target))
			}
		case *mdns.NS:
			if recordType == mdns.TypeNS {
				out = append(out, trimDot(rr.Ns))
			}
		}
	}
	return out
}

func (r *Resolver) selectServer() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	server := r.servers[r.rotateIndex%len(r.servers)]
	r.rotateIndex = (r.rotateIndex + 1) % len(r.servers)

	if !strings.Contains(server, ":") {
		server = net.JoinHostPort(server, "53")
	}
	return server
}

func systemResolvers() []string {
	cfg, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || cfg == nil || len(cfg.Servers) == 0 {
		return []string{"1.1.1.1:53", "8.8.8.8:53", "9.9.9.9:53"}
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, "53"))
	}
	return servers
}
