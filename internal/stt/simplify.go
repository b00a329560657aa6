package stt

// Speech providers occasionally emit traditional-script characters for
// Mandarin audio. When normalization is enabled the transcript is mapped
// through this fixed substitution table; anything not listed passes through
// unchanged.
var traditionalToSimplified = map[rune]rune{
	'說': '说', '話': '话', '語': '语', '請': '请', '謝': '谢',
	'會': '会', '議': '议', '記': '记', '錄': '录', '聽': '听',
	'寫': '写', '讀': '读', '書': '书', '學': '学', '習': '习',
	'問': '问', '題': '题', '開': '开', '關': '关', '門': '门',
	'時': '时', '間': '间', '點': '点', '鐘': '钟', '後': '后',
	'來': '来', '過': '过', '還': '还', '這': '这', '裡': '里',
	'邊': '边', '們': '们', '個': '个', '麼': '么', '為': '为',
	'經': '经', '總': '总', '結': '结', '報': '报', '項': '项',
	'計': '计', '劃': '划', '務': '务', '處': '处', '確': '确',
	'認': '认', '討': '讨', '論': '论', '決': '决', '進': '进',
	'發': '发', '現': '现', '負': '负', '責': '责', '應': '应',
	'該': '该', '動': '动', '員': '员', '團': '团', '隊': '队',
}

// Simplify maps traditional-script characters in text to their simplified
// equivalents.
func Simplify(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if s, ok := traditionalToSimplified[r]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
