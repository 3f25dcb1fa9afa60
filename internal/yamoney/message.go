package yamoney

import "net/url"

// ActionPaymentAviso единственное действие, которое принимает обработчик уведомлений
const ActionPaymentAviso = "paymentAviso"

// CallbackMessage поля уведомления от шлюза
type CallbackMessage struct {
	Fields map[string]string
}

// NewCallbackMessage берёт первое значение каждого поля формы
func NewCallbackMessage(form url.Values) CallbackMessage {
	fields := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return CallbackMessage{Fields: fields}
}

func (m CallbackMessage) get(key string) string {
	return m.Fields[key]
}

// Has сообщает, присутствует ли поле в сообщении
func (m CallbackMessage) Has(key string) bool {
	_, ok := m.Fields[key]
	return ok
}

func (m CallbackMessage) Action() string          { return m.get("action") }
func (m CallbackMessage) MD5() string             { return m.get("md5") }
func (m CallbackMessage) TransactionID() string   { return m.get("transaction_id") }
func (m CallbackMessage) RequestDatetime() string { return m.get("requestDatetime") }
func (m CallbackMessage) InvoiceID() string       { return m.get("invoiceId") }
func (m CallbackMessage) ShopID() string          { return m.get("shopId") }
