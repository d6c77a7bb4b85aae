package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const layoutData = "2006-01-02"

var (
	reNaoDigito = regexp.MustCompile(`\D`)
	rePlaca     = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)
	reTelefone  = regexp.MustCompile(`^\d{10,15}$`)
)

// Retorna timestamp UTC atual
func Now() time.Time {
	return time.Now().UTC()
}

// Dia trunca para meia-noite UTC; datas de negócio não têm hora
func Dia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Hoje em UTC, sem hora
func Hoje() time.Time {
	return Dia(Now())
}

// ParseData aceita "YYYY-MM-DD"
func ParseData(s string) (time.Time, error) {
	t, err := time.Parse(layoutData, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida %q, use AAAA-MM-DD", s)
	}
	return t, nil
}

// FormatData formata no padrão da API
func FormatData(t time.Time) string {
	return t.Format(layoutData)
}

// Converte string para uint com default
func ParseUint(s string, def uint) uint {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return def
	}
	return uint(n)
}

// SanitizeDigits remove caracteres não numéricos (CPF, CNPJ, telefone)
func SanitizeDigits(s string) string {
	return reNaoDigito.ReplaceAllString(s, "")
}

// IsValidCPFCNPJ checa apenas o tamanho: 11 dígitos (CPF) ou 14 (CNPJ)
func IsValidCPFCNPJ(doc string) bool {
	n := len(SanitizeDigits(doc))
	return n == 11 || n == 14
}

// NormalizePlaca deixa a placa em maiúsculas e sem separadores
func NormalizePlaca(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	return strings.NewReplacer("-", "", " ", "").Replace(p)
}

// IsValidPlaca aceita o padrão antigo (ABC1234) e o Mercosul (ABC1D23)
func IsValidPlaca(p string) bool {
	return rePlaca.MatchString(NormalizePlaca(p))
}

// Valida telefone (10~15 dígitos)
func IsValidPhone(phone string) bool {
	return reTelefone.MatchString(phone)
}
