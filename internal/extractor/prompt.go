package extractor

import "fmt"

const systemPrompt = `Du är en finansanalytiker specialiserad på att sammanfatta ` +
	`poddar och nyhetsartiklar och hitta omnämnanden av aktier och börsnoterade ` +
	`företag på den svenska och nordiska marknaden. Du svarar endast med giltig JSON.`

// buildUserPrompt renders the analysis instruction for one text. The
// service must answer with exactly the result contract: a summary and
// a mentions array with the six mention fields, restricted to the
// enumerated sentiment/recommendation values.
func buildUserPrompt(text, sourceName, title string) string {
	return fmt.Sprintf(`Analys: "%s" - "%s"

Analysera denna svenskspråkiga text med fokus på den svenska och nordiska finansmarknaden:

1. Skriv en koncis sammanfattning på svenska (3-5 meningar) som fångar huvudämnena
2. Identifiera alla omnämnanden av börsnoterade bolag, aktier och finansiella instrument

För varje omnämnande, samla in:
- Företagets/aktiens namn
- Tickersymbol exakt som den nämns (t.ex. ERIC B, SHB A) eller null om den inte nämns
- Ett direkt citat som visar kontexten (högst 150 tecken)
- Sentiment (positive/negative/neutral)
- Rekommendation (buy/sell/hold/none) om sådan nämns eller antyds tydligt
- Prisinformation eller prognos om sådan nämns, annars null
- En kort orsak till omnämnandet (t.ex. "kvartalsrapport", "produktlansering")

Returnera resultatet som JSON med följande struktur:
{
    "summary": "En sammanfattande text på svenska",
    "mentions": [
        {
            "name": "Företagsnamn",
            "ticker": "Tickersymbol eller null",
            "context": "Citat från texten",
            "sentiment": "positive/negative/neutral",
            "recommendation": "buy/sell/hold/none",
            "price_info": "Prisinformation eller null",
            "mention_reason": "Orsak till omnämnande"
        }
    ]
}

VIKTIGT:
- JSON måste vara helt giltig utan kommentarer eller förklaringar
- Använd null för värden som saknas, inte tomma strängar
- För sentiment, använd endast värdena "positive", "negative" eller "neutral"
- För recommendation, använd endast värdena "buy", "sell", "hold" eller "none"

Text att analysera:
%s`, sourceName, title, text)
}
