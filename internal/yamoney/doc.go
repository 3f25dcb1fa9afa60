// Package yamoney реализует протокол Яндекс.Денег: подпись уведомлений,
// проверку адреса шлюза, параметры платёжной формы и XML ответ на paymentAviso.
package yamoney
