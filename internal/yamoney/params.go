package yamoney

import (
	"bytes"
	"encoding/json"
	"net/url"
	"slices"
)

// Params параметры платёжной формы с сохранением порядка добавления.
// Повторный Set существующего ключа не меняет его позицию.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams создаёт пустой набор параметров
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set добавляет или переопределяет параметр
func (p *Params) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get возвращает значение параметра
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Delete удаляет параметр
func (p *Params) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
}

// Keys ключи в порядке добавления
func (p *Params) Keys() []string {
	return slices.Clone(p.keys)
}

// Len количество параметров
func (p *Params) Len() int {
	return len(p.keys)
}

// Values параметры в виде url.Values для отправки формы
func (p *Params) Values() url.Values {
	v := make(url.Values, len(p.keys))
	for _, k := range p.keys {
		v.Set(k, p.values[k])
	}
	return v
}

// MarshalJSON сериализует параметры в JSON объект с сохранением порядка ключей
func (p *Params) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
