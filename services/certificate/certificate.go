package certificate

import (
	"crypto/md5"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type Issuer struct {
	Country      []string `json:"issuerCountry"`      // 国家
	Organization []string `json:"issuerOrganization"` // 组织
	CommonName   string   `json:"issuerCommonName"`
}

type Subject struct {
	Country      []string `json:"subjectCountry"`      // 国家
	Organization []string `json:"subjectOrganization"` // 组织
	CommonName   string   `json:"subjectCommonName"`
}

type Validity struct {
	NotBefore string `json:"notBefore"` // 颁发时间
	NotAfter  string `json:"notAfter"`  // 截止时间
}

type Certificate struct {
	Issuer             `json:"issuer"`
	Subject            `json:"subject"`
	Validity           `json:"validity"`
	Version            string   `json:"version"`            // 版本号
	SerialNumber       string   `json:"serialNumber"`       // 序列号
	SignatureAlgorithm string   `json:"signatureAlgorithm"` // 证书签名算法
	PublicKeyAlgorithm string   `json:"publicKeyAlgorithm"` // 公钥算法
	PublicKey          string   `json:"publicKey,omitempty"`
	DNSNames           []string `json:"dnsNames"` // 证书关联的域名
	MD5Finger          string   `json:"md5Finger"`
	SHA1Finger         string   `json:"sha1Finger"`
	SHA256Finger       string   `json:"sha256Finger"`
}

func splitByN(s string, n int) []string {
	var parts []string
	for len(s) > 0 {
		if len(s) < n {
			parts = append(parts, strings.ToUpper(s))
			break
		}
		parts = append(parts, strings.ToUpper(s[:n]))
		s = s[n:]
	}
	return parts
}

// GetCertInfoOfResponse 从响应的 TLS 会话中提取证书信息
func GetCertInfoOfResponse(response *http.Response) *Certificate {
	state := response.TLS
	if state == nil || len(state.PeerCertificates) == 0 {
		return nil
	}

	certificate := &Certificate{}
	cert := state.PeerCertificates[0]
	// 计算三种指纹
	certificate.SHA1Finger = strings.Join(splitByN(fmt.Sprintf("%x", sha1.Sum(cert.Raw)), 2), ":")
	certificate.SHA256Finger = strings.Join(splitByN(fmt.Sprintf("%x", sha256.Sum256(cert.Raw)), 2), ":")
	certificate.MD5Finger = strings.Join(splitByN(fmt.Sprintf("%x", md5.Sum(cert.Raw)), 2), ":")
	certificate.Version = strconv.Itoa(cert.Version)
	certificate.SerialNumber = strings.Join(splitByN(fmt.Sprintf("%x", cert.SerialNumber.Bytes()), 2), ":")
	certificate.SignatureAlgorithm = cert.SignatureAlgorithm.String()
	// ISSUER
	certificate.Issuer.Country = cert.Issuer.Country
	certificate.Issuer.Organization = cert.Issuer.Organization
	certificate.Issuer.CommonName = cert.Issuer.CommonName
	// SUBJECT
	certificate.Subject.Country = cert.Subject.Country
	certificate.Subject.Organization = cert.Subject.Organization
	certificate.Subject.CommonName = cert.Subject.CommonName
	// Validity
	certificate.Validity.NotBefore = cert.NotBefore.String()
	certificate.Validity.NotAfter = cert.NotAfter.String()
	switch publicKey := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		certificate.PublicKey = strings.Join(splitByN(fmt.Sprintf("%x", publicKey.N.Bytes()), 2), ":")
	}
	certificate.PublicKeyAlgorithm = cert.PublicKeyAlgorithm.String()
	certificate.DNSNames = cert.DNSNames

	return certificate
}
