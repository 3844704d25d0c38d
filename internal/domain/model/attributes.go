package model

import "encoding/json"

// 在庫サービスの商品情報のうち、カートが解釈しない項目。
// 中身はそのまま保存・返却する。作成後は書き換えない。
type Attributes map[string]json.RawMessage

// known 以外のキーを取り出す（無ければ nil）
func splitAttributes(data []byte, known ...string) (Attributes, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Attributes(all), nil
}

// known のJSONオブジェクトに attrs を足す。同じキーは known を優先。
func mergeAttributes(known []byte, attrs Attributes) ([]byte, error) {
	if len(attrs) == 0 {
		return known, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range attrs {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// keys を除いたコピー
func (a Attributes) without(keys ...string) Attributes {
	if len(a) == 0 {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
