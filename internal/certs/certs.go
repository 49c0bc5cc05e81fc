// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package certs generates and loads the certificates used for mutual TLS
// between brush serve and its clients.
//
// A certs directory holds root-ca.{crt,key}, server.{crt,key} and
// client.{crt,key}.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
)

// CodeCertError is returned for every certificate failure.
const CodeCertError = "CERT_ERROR"

// Certificate file base names within a certs directory.
const (
	CAName     = "root-ca"
	ServerName = "server"
	ClientName = "client"
)

// Pair is a certificate and its private key.
type Pair struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// GenerateCA creates a self-signed root valid for ten years.
func GenerateCA() (*Pair, error) {
	return generate(&x509.Certificate{
		Subject:               pkix.Name{Organization: []string{"Brush"}, CommonName: "Brush CA"},
		NotAfter:              time.Now().AddDate(10, 0, 0),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}, nil)
}

// GenerateServer creates a loopback server certificate signed by ca.
// Extra hosts are added as DNS or IP SANs.
func GenerateServer(ca *Pair, hosts ...string) (*Pair, error) {
	tmpl := &x509.Certificate{
		Subject:     pkix.Name{Organization: []string{"Brush"}, CommonName: "brush-" + ServerName},
		NotAfter:    time.Now().AddDate(1, 0, 0),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}
	return generate(tmpl, ca)
}

// GenerateClient creates a client certificate signed by ca.
func GenerateClient(ca *Pair) (*Pair, error) {
	return generate(&x509.Certificate{
		Subject:     pkix.Name{Organization: []string{"Brush"}, CommonName: "brush-" + ClientName},
		NotAfter:    time.Now().AddDate(1, 0, 0),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, ca)
}

// generate fills in the serial, key and validity start of tmpl and signs
// it with parent, or with itself when parent is nil.
func generate(tmpl *x509.Certificate, parent *Pair) (*Pair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, oops.Code(CodeCertError).Wrapf(err, "generate key")
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, oops.Code(CodeCertError).Wrapf(err, "generate serial")
	}
	tmpl.SerialNumber = serial
	tmpl.NotBefore = time.Now().Add(-time.Minute)

	signer, signKey := tmpl, key
	if parent != nil {
		signer, signKey = parent.Certificate, parent.PrivateKey
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signKey)
	if err != nil {
		return nil, oops.Code(CodeCertError).With("cn", tmpl.Subject.CommonName).Wrapf(err, "create certificate")
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, oops.Code(CodeCertError).Wrapf(err, "parse certificate")
	}
	return &Pair{Certificate: cert, PrivateKey: key}, nil
}

// GenerateAll creates a CA, server and client pair in dir.
func GenerateAll(dir string, hosts ...string) error {
	ca, err := GenerateCA()
	if err != nil {
		return err
	}
	server, err := GenerateServer(ca, hosts...)
	if err != nil {
		return err
	}
	client, err := GenerateClient(ca)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code(CodeCertError).With("dir", dir).Wrapf(err, "create certs directory")
	}
	for name, p := range map[string]*Pair{CAName: ca, ServerName: server, ClientName: client} {
		if err := Save(dir, name, p); err != nil {
			return err
		}
	}
	return nil
}

// Save writes p as name.crt and name.key in dir.
func Save(dir, name string, p *Pair) error {
	keyBytes, err := x509.MarshalECPrivateKey(p.PrivateKey)
	if err != nil {
		return oops.Code(CodeCertError).Wrapf(err, "marshal key")
	}
	if err := writePEM(filepath.Join(dir, name+".crt"), "CERTIFICATE", p.Certificate.Raw); err != nil {
		return err
	}
	return writePEM(filepath.Join(dir, name+".key"), "EC PRIVATE KEY", keyBytes)
}

// Load reads name.crt and name.key from dir.
func Load(dir, name string) (*Pair, error) {
	certBlock, err := readPEM(filepath.Join(dir, name+".crt"))
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(certBlock)
	if err != nil {
		return nil, oops.Code(CodeCertError).With("name", name).Wrapf(err, "parse certificate")
	}
	keyBlock, err := readPEM(filepath.Join(dir, name+".key"))
	if err != nil {
		return nil, err
	}
	key, err := x509.ParseECPrivateKey(keyBlock)
	if err != nil {
		return nil, oops.Code(CodeCertError).With("name", name).Wrapf(err, "parse key")
	}
	return &Pair{Certificate: cert, PrivateKey: key}, nil
}

// ServerTLS returns a config that presents the server pair from dir and
// requires client certificates signed by its CA.
func ServerTLS(dir string) (*tls.Config, error) {
	pool, cert, err := loadTLS(dir, ServerName)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientTLS returns a config that presents the client pair from dir and
// trusts only its CA.
func ClientTLS(dir string) (*tls.Config, error) {
	pool, cert, err := loadTLS(dir, ClientName)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   "localhost",
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func loadTLS(dir, name string) (*x509.CertPool, tls.Certificate, error) {
	ca, err := Load(dir, CAName)
	if err != nil {
		return nil, tls.Certificate{}, err
	}
	pair, err := Load(dir, name)
	if err != nil {
		return nil, tls.Certificate{}, err
	}
	pool := x509.NewCertPool()
	pool.AddCert(ca.Certificate)
	cert := tls.Certificate{
		Certificate: [][]byte{pair.Certificate.Raw},
		PrivateKey:  pair.PrivateKey,
		Leaf:        pair.Certificate,
	}
	return pool, cert, nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return oops.Code(CodeCertError).With("path", path).Wrapf(err, "create file")
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return oops.Code(CodeCertError).With("path", path).Wrapf(err, "encode pem")
	}
	if err := f.Close(); err != nil {
		return oops.Code(CodeCertError).With("path", path).Wrapf(err, "close file")
	}
	return nil
}

func readPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.Code(CodeCertError).With("path", path).Wrapf(err, "read file")
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, oops.Code(CodeCertError).With("path", path).Errorf("no PEM block found")
	}
	return block.Bytes, nil
}
