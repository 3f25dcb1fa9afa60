package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/repository/memory"
	"github.com/shestoi/yamoney-gateway/internal/settings"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

const testSecret = "s3cr3t"

var testTopics = Topics{Success: "yamoney.success", Fail: "yamoney.fail"}

type staticURLs struct{}

func (staticURLs) CompleteURL() string { return "https://shop.example/yamoney/complete" }
func (staticURLs) FailURL() string     { return "https://shop.example/yamoney/fail" }

func testSettings() settings.Settings {
	return settings.Settings{
		IP:                   "0.0.0.0",
		Mode:                 settings.ModeTest,
		Shop:                 true,
		ShopID:               "12345",
		SCID:                 "54321",
		Secret:               testSecret,
		DefaultPaymentMethod: "AC",
		SuccessText:          "Thank you",
		FailText:             "Something went wrong",
		CMSName:              "drupal",
	}
}

// signedAviso строит корректно подписанное уведомление для ymid
func signedAviso(ymid string, overrides map[string]string) yamoney.CallbackMessage {
	form := url.Values{
		"action":                  {"paymentAviso"},
		"orderSumAmount":          {"100.00"},
		"orderSumCurrencyPaycash": {"643"},
		"orderSumBankPaycash":     {"1001"},
		"shopId":                  {"12345"},
		"invoiceId":               {"2000000001"},
		"customerNumber":          {"42"},
		"requestDatetime":         {"2024-05-01T10:00:00.000+03:00"},
		"transaction_id":          {ymid},
	}
	for k, v := range overrides {
		form.Set(k, v)
	}
	msg := yamoney.NewCallbackMessage(form)
	if _, ok := overrides["md5"]; !ok {
		msg.Fields["md5"] = yamoney.ComputeDigest(msg.Fields, testSecret)
	}
	return msg
}

func seedTransaction(t *testing.T, repo *memory.MemoryRepository, ymid string, status repository.Status) repository.Transaction {
	t.Helper()
	tx, err := repo.Create(context.Background(), repository.Transaction{
		YMID:    ymid,
		UID:     "42",
		OrderID: "1001",
		Amount:  decimal.RequireFromString("100"),
		Status:  status,
	})
	require.NoError(t, err)
	return tx
}
