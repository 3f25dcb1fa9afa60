package yamoney

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// Code код результата обработки уведомления
type Code int

const (
	CodeOK Code = 0
	// CodeMD5 ошибка авторизации: подпись не совпала
	CodeMD5 Code = 1
	// CodeCustom отказ в приёме перевода
	CodeCustom Code = 100
	// CodeRequest ошибка разбора запроса
	CodeRequest Code = 200
)

const (
	// ResponseType имя XML элемента ответа
	ResponseType = "paymentAvisoResponse"
	// ContentType заголовок ответа шлюзу
	ContentType = "application/xml"
)

// Response ответ шлюзу на уведомление
type Response struct {
	Type              string
	PerformedDatetime string
	Code              Code
	InvoiceID         string
	ShopID            string
	// Message выводится только при Code != CodeOK
	Message string
}

// NewResponse строит ответ, повторяя requestDatetime, invoiceId и shopId запроса
func NewResponse(msg CallbackMessage, code Code, message string) Response {
	return Response{
		Type:              ResponseType,
		PerformedDatetime: msg.RequestDatetime(),
		Code:              code,
		InvoiceID:         msg.InvoiceID(),
		ShopID:            msg.ShopID(),
		Message:           message,
	}
}

// Bytes сериализует ответ в XML документ из одного элемента
func (r Response) Bytes() []byte {
	typ := r.Type
	if typ == "" {
		typ = ResponseType
	}

	var b bytes.Buffer
	b.WriteString(xml.Header[:len(xml.Header)-1])
	b.WriteString("<" + typ)
	writeAttr(&b, "performedDatetime", r.PerformedDatetime)
	writeAttr(&b, "code", strconv.Itoa(int(r.Code)))
	writeAttr(&b, "invoiceId", r.InvoiceID)
	writeAttr(&b, "shopId", r.ShopID)
	if r.Code != CodeOK && r.Message != "" {
		writeAttr(&b, "message", r.Message)
	}
	b.WriteString(" />")
	return b.Bytes()
}

func writeAttr(b *bytes.Buffer, name, value string) {
	b.WriteString(" " + name + `="`)
	// EscapeText пишет в bytes.Buffer без ошибок
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}
