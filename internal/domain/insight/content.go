package insight

import (
	"fmt"

	model "github.com/okian/touchline/internal/domain/model"
)

// templates maps a content key to per-language format strings. The "en"
// entry always exists and doubles as the canonical content the rules emit.
var templates = map[string]map[string]string{
	"goal.seek_equalizer": {
		"en": "Conceded in minute %d. Commit more numbers forward and press for an equalizer.",
		"es": "Gol encajado en el minuto %d. Adelanta las líneas y presiona en busca del empate.",
		"de": "Gegentor in Minute %d. Mehr Spieler nach vorn und auf den Ausgleich drängen.",
		"fr": "But encaissé à la minute %d. Poussez plus de joueurs vers l'avant et cherchez l'égalisation.",
	},
	"goal.defend_momentum": {
		"en": "Goal up in minute %d. Protect the lead: keep the block compact and slow the restarts.",
		"es": "Gol a favor en el minuto %d. Protege la ventaja: bloque compacto y saques lentos.",
		"de": "Führungstor in Minute %d. Vorsprung sichern: kompakt stehen und das Tempo rausnehmen.",
		"fr": "But marqué à la minute %d. Protégez l'avance : bloc compact et remises en jeu lentes.",
	},
	"card.discipline": {
		"en": "%s is on a booking. Tighten tackle timing and avoid unnecessary fouls.",
		"es": "%s está amonestado. Ajusta el tiempo de las entradas y evita faltas innecesarias.",
		"de": "%s ist verwarnt. Zweikämpfe sauberer führen und unnötige Fouls vermeiden.",
		"fr": "%s est averti. Maîtrisez le timing des tacles et évitez les fautes inutiles.",
	},
	"card.reshape": {
		"en": "Red card for %s. Reshape immediately and decide which zone to concede.",
		"es": "Tarjeta roja para %s. Reorganiza de inmediato y decide qué zona ceder.",
		"de": "Rote Karte für %s. Sofort umstellen und entscheiden, welchen Raum man aufgibt.",
		"fr": "Carton rouge pour %s. Réorganisez immédiatement et choisissez la zone à céder.",
	},
	"substitution.matchups": {
		"en": "Substitution brings on %s. Re-check your matchups on that side.",
		"es": "Entra %s por sustitución. Revisa los emparejamientos en esa banda.",
		"de": "Einwechslung von %s. Zuordnungen auf dieser Seite neu prüfen.",
		"fr": "Entrée de %s. Revérifiez vos duels de ce côté.",
	},
	"tactical.rebalance": {
		"en": "Opposition tactical change detected. Re-balance your press triggers and passing outlets.",
		"es": "Cambio táctico del rival detectado. Reequilibra la presión y las salidas de balón.",
		"de": "Taktische Umstellung des Gegners erkannt. Pressingauslöser und Anspielstationen anpassen.",
		"fr": "Changement tactique adverse détecté. Rééquilibrez le pressing et les relances.",
	},
	"injury.assess": {
		"en": "Injury concern for %s. Assess severity before the next stoppage.",
		"es": "Posible lesión de %s. Evalúa la gravedad antes de la próxima pausa.",
		"de": "Verletzungssorge bei %s. Schwere vor der nächsten Unterbrechung abklären.",
		"fr": "Inquiétude de blessure pour %s. Évaluez la gravité avant le prochain arrêt de jeu.",
	},
	"injury.replace": {
		"en": "Prepare a replacement for %s and adjust set-piece duties.",
		"es": "Prepara un sustituto para %s y reajusta las tareas a balón parado.",
		"de": "Ersatz für %s vorbereiten und Standards neu verteilen.",
		"fr": "Préparez un remplaçant pour %s et réattribuez les coups de pied arrêtés.",
	},
	"formation.counter": {
		"en": "Opposition switched to %s. Counter by overloading the spare zone.",
		"es": "El rival cambió a %s. Contrarresta sobrecargando la zona libre.",
		"de": "Gegner stellt auf %s um. Mit Überzahl in der freien Zone kontern.",
		"fr": "L'adversaire passe en %s. Contrez en surchargeant la zone libre.",
	},
	"momentum.stem": {
		"en": "Momentum is running against you. Slow the game down and reset the shape.",
		"es": "El impulso corre en tu contra. Enfría el partido y reordena el equipo.",
		"de": "Das Momentum läuft gegen euch. Tempo rausnehmen und Ordnung wiederherstellen.",
		"fr": "La dynamique tourne contre vous. Ralentissez le jeu et resserrez le bloc.",
	},
	"momentum.press": {
		"en": "Momentum is with you. Raise the press line and attack transitions.",
		"es": "El impulso está de tu lado. Sube la línea de presión y ataca las transiciones.",
		"de": "Das Momentum ist auf eurer Seite. Pressinglinie höher und Umschaltmomente angreifen.",
		"fr": "La dynamique est pour vous. Montez la ligne de pressing et attaquez les transitions.",
	},
	"momentum.fresh_legs": {
		"en": "Fresh legs would steady the side. Line up an energetic substitution.",
		"es": "Piernas frescas estabilizarían al equipo. Prepara un cambio con energía.",
		"de": "Frische Kräfte würden stabilisieren. Eine laufstarke Einwechslung vorbereiten.",
		"fr": "Des jambes fraîches stabiliseraient l'équipe. Préparez un changement dynamique.",
	},
}

// actionTranslations maps canonical action phrases to their translations.
// Action phrases are fixed strings so exact-match lookup is enough.
var actionTranslations = map[string]map[string]string{
	"Push numbers forward at set pieces": {
		"es": "Suma gente al área en el balón parado",
		"de": "Bei Standards mehr Leute in den Strafraum schicken",
		"fr": "Envoyez du monde dans la surface sur coups de pied arrêtés",
	},
	"Compact the midfield block": {
		"es": "Compacta el bloque de mediocampo",
		"de": "Das Mittelfeld kompakt halten",
		"fr": "Resserrez le bloc du milieu",
	},
	"Shift to a back three": {
		"es": "Cambia a una línea de tres",
		"de": "Auf Dreierkette umstellen",
		"fr": "Passez à une défense à trois",
	},
	"Warm up an attacking substitute": {
		"es": "Calienta a un suplente ofensivo",
		"de": "Einen offensiven Einwechselspieler warmmachen",
		"fr": "Faites chauffer un remplaçant offensif",
	},
	"Warm up a defensive substitute": {
		"es": "Calienta a un suplente defensivo",
		"de": "Einen defensiven Einwechselspieler warmmachen",
		"fr": "Faites chauffer un remplaçant défensif",
	},
	"Shield the booked player from direct duels": {
		"es": "Protege al amonestado de los duelos directos",
		"de": "Den Verwarnten aus direkten Zweikämpfen heraushalten",
		"fr": "Protégez le joueur averti des duels directs",
	},
	"Switch the press trigger to the fullbacks": {
		"es": "Cambia el disparador de la presión a los laterales",
		"de": "Pressingauslöser auf die Außenverteidiger legen",
		"fr": "Déclenchez le pressing sur les latéraux",
	},
	"Drop the defensive line five meters": {
		"es": "Retrasa la línea defensiva cinco metros",
		"de": "Die Abwehrlinie fünf Meter tiefer stellen",
		"fr": "Reculez la ligne défensive de cinq mètres",
	},
	"Prepare the positional replacement": {
		"es": "Prepara al sustituto de esa posición",
		"de": "Den positionsgetreuen Ersatz vorbereiten",
		"fr": "Préparez le remplaçant du poste",
	},
	"Overload the spare zone": {
		"es": "Sobrecarga la zona libre",
		"de": "Die freie Zone überladen",
		"fr": "Surchargez la zone libre",
	},
}

// render formats the template for key in lang. Missing keys or languages
// return the empty string.
func render(key, lang string, args ...any) string {
	byLang, ok := templates[key]
	if !ok {
		return ""
	}
	format, ok := byLang[lang]
	if !ok {
		return ""
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Localize fills a draft's localized content and actions for a catalog
// language key such as "es". English input returns the draft unchanged;
// missing translations leave the localized fields empty rather than
// falling back to English, so the caller can tell the difference.
func Localize(d model.InsightDraft, lang string) model.InsightDraft {
	if lang == "" || lang == "en" {
		return d
	}
	if d.TemplateKey != "" {
		d.LocalizedContent = render(d.TemplateKey, lang, d.TemplateArgs...)
	}
	if len(d.Actions) > 0 {
		actions := make([]model.ActionItem, len(d.Actions))
		copy(actions, d.Actions)
		for i := range actions {
			if tr, ok := actionTranslations[actions[i].Action]; ok {
				actions[i].LocalizedAction = tr[lang]
			}
		}
		d.Actions = actions
	}
	return d
}
