package yamoney

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// digestFields порядок полей в подписи уведомления
var digestFields = []string{
	"action",
	"orderSumAmount",
	"orderSumCurrencyPaycash",
	"orderSumBankPaycash",
	"shopId",
	"invoiceId",
	"customerNumber",
}

// ComputeDigest считает MD5 подпись уведомления в верхнем регистре.
// Отсутствующее поле участвует как пустая строка; для пустого набора полей возвращается "".
func ComputeDigest(fields map[string]string, secret string) string {
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	for _, name := range digestFields {
		b.WriteString(fields[name])
		b.WriteByte(';')
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifyDigest сравнивает присланную подпись с вычисленной за постоянное время.
// Пустая подпись с любой стороны или пустой секрет не проходят.
func VerifyDigest(fields map[string]string, secret, supplied string) bool {
	// старый модуль принимал подпись с пустым секретом
	if secret == "" {
		return false
	}
	expected := ComputeDigest(fields, secret)
	if expected == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
