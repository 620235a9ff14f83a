package web

// Scenario is the opening of a practice dialogue.
type Scenario struct {
	SituationZH       string `json:"situation_zh"`
	SituationEN       string `json:"situation_en"`
	InitialLineZH     string `json:"initial_line_zh"`
	InitialLinePinyin string `json:"initial_line_pinyin"`
	InitialLineEN     string `json:"initial_line_en"`
}

// DefaultScenario is used for unknown scenario names.
const DefaultScenario = "restaurant"

var scenarios = map[string]Scenario{
	"restaurant": {
		SituationZH:       "你在一家中国餐馆",
		SituationEN:       "You are in a Chinese restaurant",
		InitialLineZH:     "您好，请问想吃点什么？",
		InitialLinePinyin: "nín hǎo, qǐng wèn xiǎng chī diǎn shén me?",
		InitialLineEN:     "Hello, what would you like to eat?",
	},
	"shopping": {
		SituationZH:       "你在商场里找衣服",
		SituationEN:       "You are looking for clothes in a mall",
		InitialLineZH:     "需要我帮您找什么吗？",
		InitialLinePinyin: "xū yào wǒ bāng nín zhǎo shén me ma?",
		InitialLineEN:     "Can I help you find something?",
	},
	"travel": {
		SituationZH:       "你在火车站买票",
		SituationEN:       "You are buying tickets at the train station",
		InitialLineZH:     "您要去哪里？",
		InitialLinePinyin: "nín yào qù nǎ lǐ?",
		InitialLineEN:     "Where would you like to go?",
	},
	"work": {
		SituationZH:       "你在办公室和同事聊天",
		SituationEN:       "You are chatting with a colleague at the office",
		InitialLineZH:     "周末有什么计划吗？",
		InitialLinePinyin: "zhōu mò yǒu shén me jì huà ma?",
		InitialLineEN:     "Do you have any plans for the weekend?",
	},
}

func lookupScenario(name string) (string, Scenario) {
	if s, ok := scenarios[name]; ok {
		return name, s
	}
	return DefaultScenario, scenarios[DefaultScenario]
}
