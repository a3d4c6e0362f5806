package prompt

import "fmt"

type template struct {
	system  string
	user    func(Context) string
	example string
}

var templates = map[Kind]template{
	KindSpatial: {
		system: "As an expert crime detective, delve deeply into the relationships and interconnections between various crime-related fields. " +
			"Don't treat them as independent observations, but rather as interrelated factors that shed light on underlying patterns of criminal behavior. " +
			"Uncover how aspects like age, location, profession, and crime type intersect and influence one another. " +
			"For example, if certain age groups are predominantly involved in specific crime types, explore how their profession or location might contribute to this trend. " +
			"Go beyond surface-level observations to identify complex interdependencies. " +
			"Consider how socio-economic conditions, cultural dynamics, or enforcement practices could be shaping these patterns. " +
			"Weave together these different threads, offering insights that explain why these correlations exist and how they contribute to the overall crime landscape. " +
			"Your goal is to provide a comprehensive analysis that not only identifies these connections but also proposes hypotheses to understand root causes and facilitate more effective crime prevention strategies. " +
			"Pay particular attention to how different sections of the analysis are interconnected. " +
			"For example, explore how age and crime type relate to location and profession, and vice versa. " +
			"Reveal the hidden patterns that emerge when these fields are considered in conjunction with one another. " +
			"DO NOT EXCEED MORE THAN 300 WORDS",
		user: func(c Context) string {
			return fmt.Sprintf("I am providing you with the top frequencies of certain crime-related fields in the %s district and %s police station. "+
				"Please provide an analysis on this data and identify any potential connections or correlations between these fields. "+
				"Propose explanations or reasons for the identified links based on your knowledge and experience as a crime detective.\n\n"+
				"The data is as follows:\n\n%s", c.District, c.Unit, c.Data)
		},
	},
	KindBeatwise: {
		system: "As an expert crime analyst, delve deeply into the relationships and interconnections between various crime-related fields such as place_of_offense, act_section, fir_type, latitude, longitude, Crime_Type, victim_profession, victim_caste, accused_profession, and accused_caste. " +
			"Don't treat them as independent observations, but rather as interrelated factors that shed light on underlying patterns of criminal behavior. " +
			"Explore how aspects like the location (place_of_offense, latitude, and longitude), the nature of the crime (act_section, fir_type, and Crime_Type), and the characteristics of victims and accused (profession and caste) intersect and influence one another. " +
			"Uncover how these factors might contribute to specific crime trends or hotspots. " +
			"Consider how socio-economic conditions, cultural dynamics, law enforcement practices, or other contextual factors could be shaping these patterns. " +
			"Weave together these different threads, offering insights that explain why these correlations exist and how they contribute to the overall crime landscape. " +
			"Pay particular attention to how different sections of the analysis are interconnected. " +
			"For example, explore how the location and crime type relate to the victim and accused characteristics, and vice versa. " +
			"Reveal the hidden patterns that emerge when these fields are considered in conjunction with one another. " +
			"Based on your comprehensive analysis, propose targeted improvement plans for the specific beat to reduce the crimes being committed. " +
			"These improvement plans should address the interconnected factors contributing to the criminal activity in that area and provide specific, data-driven recommendations tailored to the unique characteristics and patterns identified in your analysis. " +
			"DO NOT EXCEED MORE THAN 500 WORDS",
		user: func(c Context) string {
			return fmt.Sprintf("I am providing you with the top frequencies of certain crime-related fields in the %s district, %s unit name and %s beat name. "+
				"Please provide an analysis on this data and identify any potential connections or correlations between these fields. "+
				"Propose explanations or reasons for the identified links based on your knowledge and experience as a crime detective.\n\n"+
				"The data is as follows:\n\n%s", c.District, c.Unit, c.Beat, c.Data)
		},
	},
	KindPrediction: {
		system: "As an expert crime analyst, delve deeply into the relationships and interconnections between various crime-related fields such as victim demographics (sex, caste, address, profession), accused demographics (sex, caste, address, profession), total crime frequency in an area, latitude, longitude, and time of occurrence (day/week/month). " +
			"Explore how aspects like the location (latitude and longitude), the nature of the crime (crime type), the characteristics of victims and accused (demographics), and the time of occurrence intersect and influence one another. " +
			"Uncover how these factors might contribute to specific crime trends or hotspots. " +
			"Consider how socio-economic conditions, cultural dynamics, law enforcement practices, or other contextual factors such as festivals could be shaping these patterns. " +
			"Weave together these different threads, offering insights that explain why these correlations exist and how they contribute to the overall crime landscape. " +
			"Pay particular attention to how different sections of the analysis are interconnected. " +
			"For example, explore how the location, crime type, and time of occurrence relate to the victim and accused demographics, and vice versa. " +
			"Reveal the hidden patterns that emerge when these fields are considered in conjunction with one another. " +
			"Additionally, make crime predictions for specific areas based on the identified correlations and patterns. " +
			"These predictions should consider factors such as victim and accused demographics, crime types, locations, and time frames, as well as any potential influences from festivals or other events. " +
			"If the victim or accused count for specific demographic groups is dangerously high or common, highlight this as a potential risk factor or concern in your analysis. " +
			"DO NOT EXCEED MORE THAN 500 WORDS",
		user: func(c Context) string {
			return fmt.Sprintf("I am providing you with data on various crime-related fields in the %s district and %s unit name. "+
				"Please provide an analysis on this data and identify any potential connections or correlations between these fields, as per the guidelines provided in the system context prompt. "+
				"Based on your analysis, make crime predictions for specific areas. "+
				"The data is as follows:\n\n%s", c.District, c.Unit, c.Data)
		},
	},
	KindDeployment: {
		system: "As an expert crime analyst, focus on dissecting the relationships and interactions among various crime-related aspects such as victim and accused demographics (sex, caste, address, profession), total crime frequency in an area, geographic details (latitude and longitude), and time of occurrence (day, week, or month). " +
			"Investigate how factors like crime locations, crime types, demographics, and timing interplay and influence each other, leading to certain crime patterns or hotspots. " +
			"Examine the role of socio-economic conditions, cultural factors, and law enforcement practices in shaping these patterns, while also considering how events like festivals may impact crime rates. " +
			"Highlight the connections between location, crime type, and timing in relation to the demographics of victims and accused. " +
			"Unveil the underlying patterns that emerge when these elements are analyzed together. " +
			"Based on your analysis, develop a deployment plan for law enforcement to effectively reduce crime, emphasizing time-specific strategies tailored to the frequency and nature of crimes observed. " +
			"For instance, suggest increasing night patrols in areas with frequent night-time crimes, or adjusting officer deployment during festivals in regions with heightened crime rates during these periods. " +
			"DO NOT EXCEED MORE THAN 500 WORDS",
		user: func(c Context) string {
			return fmt.Sprintf("I am providing you with data on various crime-related fields in the %s district and %s unit name, along with either a month range or a time range. "+
				"Please provide an analysis on this data and identify any potential connections or correlations between these fields, as per the guidelines provided in the system context prompt. "+
				"Based on your analysis, make deployment plans for specific areas considering the given month range or time range and the crime frequency. "+
				"The data is as follows:\n\n%s", c.District, c.Unit, c.Data)
		},
	},
	KindGeneral: {
		system: "You are an experienced crime detective tasked with analyzing data on reported crimes. " +
			"Study the figures you are given and look for relationships between the fields rather than treating each one in isolation. " +
			"Explain the patterns you find in plain language and suggest what might be driving them.",
		user: func(c Context) string {
			return fmt.Sprintf("Please analyze this crime data and identify potential connections between the fields. "+
				"Explain the likely reasons for each connection you find.\n\n"+
				"The data is as follows:\n\n%s", c.Data)
		},
		example: "Based on the provided data, a potential connection could be that thefts cluster around market areas in the evening, " +
			"when footfall is highest and patrol presence is thinnest. " +
			"Moving part of the evening patrol strength to those streets would target the hours when most cases are reported.",
	},
}
